// Package localpeer watches the local clipboard and forwards genuine changes
// to the remote peer.
//
// The poller samples the clipboard on a fixed interval. A new value is either
// the echo of text the HTTP handler just wrote on behalf of the peer, which
// is dropped, or a real local copy, which is stored and pushed. The store's
// peer flag tells the two apart and is consumed exactly once per change.
package localpeer

import (
	"context"
	"log/slog"
	"time"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/logging"
	"go.klb.dev/clipbridge/internal/state"
)

// DefaultInterval is the clipboard sampling period.
const DefaultInterval = time.Second

// Pusher sends a local change to the peer.
type Pusher interface {
	Push(ctx context.Context, text string) error
}

// Result describes what a single tick did.
type Result int

const (
	NoChange Result = iota
	ReadFailed
	Echo
	Pushed
	PushFailed
)

func (r Result) String() string {
	switch r {
	case NoChange:
		return "no-change"
	case ReadFailed:
		return "read-failed"
	case Echo:
		return "echo"
	case Pushed:
		return "pushed"
	case PushFailed:
		return "push-failed"
	default:
		return "unknown"
	}
}

// Options tune the poller.
type Options struct {
	// Interval between clipboard samples. Zero means DefaultInterval.
	Interval time.Duration
	// Seed records the clipboard contents at start as already seen, so they
	// are not pushed on the first tick.
	Seed bool
}

// Poller is the local side of the sync loop. Tick and Run must not be called
// concurrently.
type Poller struct {
	backend  clip.Backend
	store    *state.Store
	pusher   Pusher
	interval time.Duration
	seed     bool
	log      *slog.Logger

	last string
}

// New creates a poller but does not start it.
func New(backend clip.Backend, store *state.Store, pusher Pusher, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:  backend,
		store:    store,
		pusher:   pusher,
		interval: interval,
		seed:     opts.Seed,
		log:      slog.With("component", "poller"),
	}
}

// Run samples the clipboard until ctx is cancelled. Call in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("local clipboard poller started",
		"backend", p.backend.Name(),
		"interval", p.interval,
		"seed", p.seed,
	)
	if p.seed {
		p.seedFromClipboard()
	}

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("local clipboard poller stopped")
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

func (p *Poller) seedFromClipboard() {
	text, err := p.backend.Read()
	if err != nil {
		p.log.Warn("initial clipboard read failed", "err", err)
		return
	}
	if text == "" {
		return
	}
	p.last = text
	p.store.Set(text, false)
	p.log.Debug("seeded from clipboard", "bytes", len(text))
}

// Tick samples the clipboard once and acts on any change.
func (p *Poller) Tick(ctx context.Context) Result {
	text, err := p.backend.Read()
	if err != nil {
		p.log.Warn("clipboard read failed", "err", err)
		return ReadFailed
	}
	if text == "" || text == p.last {
		return NoChange
	}

	// Advance before branching so the next tick does not see this value again.
	p.last = text

	if p.store.ConsumePeerFlag() {
		p.store.RecordEcho()
		p.log.Debug("echo suppressed", "bytes", len(text))
		return Echo
	}

	p.store.Set(text, false)
	p.log.Debug("local clipboard changed, pushing", "bytes", len(text), "preview", logging.Preview(text))

	if err := p.pusher.Push(ctx, text); err != nil {
		p.store.RecordPush(false)
		p.log.Warn("push to peer failed", "err", err)
		return PushFailed
	}
	p.store.RecordPush(true)
	p.log.Info("clipboard pushed to peer", "bytes", len(text))
	return Pushed
}
