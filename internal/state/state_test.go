package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSetGet(t *testing.T) {
	c := qt.New(t)

	s := New()
	c.Assert(s.Get(), qt.Equals, "")

	s.Set("hello", false)
	c.Assert(s.Get(), qt.Equals, "hello")

	s.Set("from peer", true)
	c.Assert(s.Get(), qt.Equals, "from peer")
}

func TestConsumePeerFlag(t *testing.T) {
	c := qt.New(t)

	c.Run("true then false after a peer write", func(c *qt.C) {
		s := New()
		s.Set("v", true)
		c.Assert(s.ConsumePeerFlag(), qt.IsTrue)
		c.Assert(s.ConsumePeerFlag(), qt.IsFalse)
	})

	c.Run("false after a local write", func(c *qt.C) {
		s := New()
		s.Set("v", false)
		c.Assert(s.ConsumePeerFlag(), qt.IsFalse)
	})

	c.Run("consuming does not touch the text", func(c *qt.C) {
		s := New()
		s.Set("keep", true)
		s.ConsumePeerFlag()
		c.Assert(s.Get(), qt.Equals, "keep")
	})

	c.Run("local write clears a pending peer flag", func(c *qt.C) {
		s := New()
		s.Set("a", true)
		s.Set("b", false)
		c.Assert(s.ConsumePeerFlag(), qt.IsFalse)
	})
}

func TestConsumePeerFlag_Concurrent(t *testing.T) {
	c := qt.New(t)

	for range 50 {
		s := New()
		s.Set("v", true)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.ConsumePeerFlag() {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		c.Assert(wins.Load(), qt.Equals, int32(1))
	}
}

func TestSnapshot(t *testing.T) {
	c := qt.New(t)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New()
	s.now = func() time.Time { return fixed }

	c.Assert(s.Snapshot().Origin, qt.Equals, OriginNone)

	s.Set("remote", true)
	s.RecordEcho()
	s.Set("local", false)
	s.RecordPush(true)
	s.RecordPush(false)

	c.Assert(s.Snapshot(), qt.DeepEquals, Snapshot{
		Text:       "local",
		Origin:     OriginLocal,
		UpdatedAt:  fixed,
		Received:   1,
		Pushed:     1,
		PushFailed: 1,
		Echoes:     1,
	})
}
