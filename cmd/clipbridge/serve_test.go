package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/ipc"
	"go.klb.dev/clipbridge/internal/remotepeer"
)

type daemon struct {
	mem  *clip.Memory
	ln   net.Listener
	done chan error
}

func listenLocal(c *qt.C) net.Listener {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)
	return ln
}

func startDaemon(c *qt.C, ctx context.Context, ln net.Listener, peer string, tweak ...func(*config.Config)) *daemon {
	cfg := config.Default()
	cfg.Listen = ln.Addr().String()
	cfg.Peer = peer
	cfg.Allow = []string{"127.0.0."}
	cfg.PollInterval = 200 * time.Millisecond
	cfg.PushTimeout = 150 * time.Millisecond
	cfg.Clipboard = clip.KindMemory
	cfg.Source = "test-" + ln.Addr().String()
	cfg.IPC = false
	for _, fn := range tweak {
		fn(&cfg)
	}
	c.Assert(cfg.Validate(), qt.IsNil)

	d := &daemon{mem: clip.NewMemory(), ln: ln, done: make(chan error, 1)}
	go func() { d.done <- runServe(ctx, cfg, d.mem, ln) }()
	return d
}

func waitFor(c *qt.C, what string, cond func() bool) {
	c.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Fatalf("timed out waiting for %s", what)
}

func TestTwoDaemonsSync(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	lnA, lnB := listenLocal(c), listenLocal(c)
	a := startDaemon(c, ctx, lnA, lnB.Addr().String())
	b := startDaemon(c, ctx, lnB, lnA.Addr().String())

	// Copy on A shows up on B.
	a.mem.SetText("hello from A")
	waitFor(c, "B to receive A's text", func() bool {
		got, _ := b.mem.Read()
		return got == "hello from A"
	})

	statusB, err := remotepeer.New(lnB.Addr().String())
	c.Assert(err, qt.IsNil)

	// B's poller sees the received text and must not send it back.
	waitFor(c, "B to suppress the echo", func() bool {
		st, err := statusB.Status(context.Background())
		return err == nil && st.Echoes == 1
	})
	st, err := statusB.Status(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(st.Received, qt.Equals, uint64(1))
	c.Assert(st.Pushed, qt.Equals, uint64(0))
	c.Assert(st.Origin, qt.Equals, "peer")

	// Copy on B travels the other way.
	b.mem.SetText("reply from B")
	waitFor(c, "A to receive B's reply", func() bool {
		got, _ := a.mem.Read()
		return got == "reply from B"
	})

	cancel()
	for _, d := range []*daemon{a, b} {
		select {
		case err := <-d.done:
			c.Assert(err, qt.IsNil)
		case <-time.After(5 * time.Second):
			c.Fatal("daemon did not shut down")
		}
	}
}

func TestCopyCommandReachesPeer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("IPC socket test needs AF_UNIX file semantics")
	}
	c := qt.New(t)

	dir, err := os.MkdirTemp("", "cb")
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = os.RemoveAll(dir) })
	c.Setenv("CLIPBRIDGE_SOCKET", filepath.Join(dir, "a.sock"))
	c.Setenv("HOME", c.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	lnA, lnB := listenLocal(c), listenLocal(c)
	a := startDaemon(c, ctx, lnA, lnB.Addr().String(), func(cfg *config.Config) { cfg.IPC = true })
	b := startDaemon(c, ctx, lnB, lnA.Addr().String())
	waitFor(c, "A's IPC socket", ipc.IsRunning)

	root := newRootCmd()
	root.SetIn(strings.NewReader("typed via copy"))
	root.SetArgs([]string{"copy"})
	c.Assert(root.Execute(), qt.IsNil)

	waitFor(c, "B to receive the copied text", func() bool {
		got, _ := b.mem.Read()
		return got == "typed via copy"
	})
	got, _ := a.mem.Read()
	c.Assert(got, qt.Equals, "typed via copy")

	cancel()
	for _, d := range []*daemon{a, b} {
		select {
		case err := <-d.done:
			c.Assert(err, qt.IsNil)
		case <-time.After(5 * time.Second):
			c.Fatal("daemon did not shut down")
		}
	}
}

func TestRunServeRejectsBadPeer(t *testing.T) {
	c := qt.New(t)

	cfg := config.Default()
	cfg.Peer = "ftp://192.168.137.2"
	err := runServe(context.Background(), cfg, clip.NewMemory(), listenLocal(c))
	c.Assert(err, qt.ErrorMatches, "peer: .*")
}
