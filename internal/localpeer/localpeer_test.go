package localpeer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/state"
)

type fakePusher struct {
	mu     sync.Mutex
	pushed []string
	err    error
	block  bool
}

func (f *fakePusher) Push(ctx context.Context, text string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, text)
	return f.err
}

func (f *fakePusher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pushed...)
}

func newTestPoller(opts Options) (*Poller, *clip.Memory, *state.Store, *fakePusher) {
	mem := clip.NewMemory()
	store := state.New()
	push := &fakePusher{}
	return New(mem, store, push, opts), mem, store, push
}

func TestTick_GenuineChangeIsPushedOnce(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{})
	ctx := context.Background()

	mem.SetText("W")
	c.Assert(p.Tick(ctx), qt.Equals, Pushed)
	c.Assert(push.calls(), qt.DeepEquals, []string{"W"})
	c.Assert(store.Get(), qt.Equals, "W")
	c.Assert(store.Snapshot().Origin, qt.Equals, state.OriginLocal)

	// Same value on the next tick: nothing more.
	c.Assert(p.Tick(ctx), qt.Equals, NoChange)
	c.Assert(push.calls(), qt.HasLen, 1)
	c.Assert(store.Snapshot().Pushed, qt.Equals, uint64(1))
}

func TestTick_EchoIsSuppressed(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{})
	ctx := context.Background()

	// What the inbound handler does for a peer value.
	store.Set("V", true)
	c.Assert(mem.Write("V"), qt.IsNil)

	c.Assert(p.Tick(ctx), qt.Equals, Echo)
	c.Assert(push.calls(), qt.HasLen, 0)
	c.Assert(store.ConsumePeerFlag(), qt.IsFalse)
	c.Assert(store.Get(), qt.Equals, "V")
	c.Assert(store.Snapshot().Echoes, qt.Equals, uint64(1))

	// A later genuine local copy is pushed.
	mem.SetText("mine")
	c.Assert(p.Tick(ctx), qt.Equals, Pushed)
	c.Assert(push.calls(), qt.DeepEquals, []string{"mine"})
}

func TestTick_PeerFlagAloneMarksEcho(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{})
	ctx := context.Background()

	// The peer sends V1 then V2 back to back. The tick lands after V2 is in
	// the store but before it reaches the clipboard, so it reads V1.
	store.Set("V1", true)
	c.Assert(mem.Write("V1"), qt.IsNil)
	store.Set("V2", true)

	c.Assert(p.Tick(ctx), qt.Equals, Echo)
	c.Assert(push.calls(), qt.HasLen, 0)
	c.Assert(store.Get(), qt.Equals, "V2")
	c.Assert(store.Snapshot().Origin, qt.Equals, state.OriginPeer)
}

func TestTick_EmptyReadsKeepTracker(t *testing.T) {
	c := qt.New(t)
	p, mem, _, push := newTestPoller(Options{})
	ctx := context.Background()

	mem.SetText("A")
	c.Assert(p.Tick(ctx), qt.Equals, Pushed)

	mem.SetText("")
	c.Assert(p.Tick(ctx), qt.Equals, NoChange)
	c.Assert(p.Tick(ctx), qt.Equals, NoChange)

	// Back to the same value after empty reads: not a change.
	mem.SetText("A")
	c.Assert(p.Tick(ctx), qt.Equals, NoChange)
	c.Assert(push.calls(), qt.DeepEquals, []string{"A"})
}

func TestTick_ReadErrorIsContained(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{})
	ctx := context.Background()

	mem.SetText("A")
	mem.Fail(errors.New("clipboard holds an image"), nil)
	c.Assert(p.Tick(ctx), qt.Equals, ReadFailed)
	c.Assert(push.calls(), qt.HasLen, 0)
	c.Assert(store.Get(), qt.Equals, "")

	mem.Fail(nil, nil)
	c.Assert(p.Tick(ctx), qt.Equals, Pushed)
}

func TestTick_PushFailureIsNotRetried(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{})
	push.err = errors.New("connection refused")
	ctx := context.Background()

	mem.SetText("A")
	c.Assert(p.Tick(ctx), qt.Equals, PushFailed)
	c.Assert(p.Tick(ctx), qt.Equals, NoChange)
	c.Assert(push.calls(), qt.HasLen, 1)

	// Local state still reflects the change.
	c.Assert(store.Get(), qt.Equals, "A")
	c.Assert(store.Snapshot().PushFailed, qt.Equals, uint64(1))
}

func TestRun_SeedSkipsExistingClipboard(t *testing.T) {
	c := qt.New(t)
	p, mem, store, push := newTestPoller(Options{Interval: 5 * time.Millisecond, Seed: true})
	mem.SetText("before start")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	c.Assert(push.calls(), qt.HasLen, 0)
	c.Assert(store.Get(), qt.Equals, "before start")

	mem.SetText("after start")
	deadline := time.After(2 * time.Second)
	for len(push.calls()) == 0 {
		select {
		case <-deadline:
			c.Fatal("poller never pushed the new value")
		case <-time.After(5 * time.Millisecond):
		}
	}
	c.Assert(push.calls(), qt.DeepEquals, []string{"after start"})

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		c.Fatal("Run did not return after cancel")
	}
}

func TestRun_StopsPromptlyDuringPush(t *testing.T) {
	c := qt.New(t)
	mem := clip.NewMemory()
	mem.SetText("stuck")
	p := New(mem, state.New(), &fakePusher{block: true}, Options{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		c.Fatal("Run did not return while a push was outstanding")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	c := qt.New(t)
	p, _, _, _ := newTestPoller(Options{})
	c.Assert(p.interval, qt.Equals, DefaultInterval)
	c.Assert(Pushed.String(), qt.Equals, "pushed")
}
