package clip

import (
	"fmt"
	"runtime"
	"sync"
)

type pinnedCall struct {
	fn   func() error
	done chan error
}

// Pinned runs every call of a wrapped backend on a single goroutine locked to
// its OS thread. Some platform clipboards only answer on the thread that
// initialised them. Callers block until their call has run.
type Pinned struct {
	b     Backend
	calls chan pinnedCall
	quit  chan struct{}
	exit  chan struct{}
	once  sync.Once
}

// Pin starts the dedicated thread and wraps b.
func Pin(b Backend) *Pinned {
	p := &Pinned{
		b:     b,
		calls: make(chan pinnedCall),
		quit:  make(chan struct{}),
		exit:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Pinned) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.exit)

	for {
		select {
		case <-p.quit:
			return
		case c := <-p.calls:
			c.done <- runGuarded(c.fn)
		}
	}
}

func runGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Do runs fn on the pinned thread and returns its error. It returns
// ErrClosed if the thread has been stopped.
func (p *Pinned) Do(fn func() error) error {
	done := make(chan error, 1)
	select {
	case <-p.quit:
		return ErrClosed
	case p.calls <- pinnedCall{fn: fn, done: done}:
	}
	return <-done
}

func (p *Pinned) Name() string { return p.b.Name() }

func (p *Pinned) Read() (string, error) {
	var text string
	err := p.Do(func() error {
		var err error
		text, err = p.b.Read()
		return err
	})
	if err != nil {
		return "", asAccessError("read", p.b.Name(), err)
	}
	return text, nil
}

func (p *Pinned) Write(text string) error {
	err := p.Do(func() error { return p.b.Write(text) })
	if err != nil {
		return asAccessError("write", p.b.Name(), err)
	}
	return nil
}

// Close closes the wrapped backend on its own thread, then stops the thread.
func (p *Pinned) Close() {
	p.once.Do(func() {
		_ = p.Do(func() error {
			p.b.Close()
			return nil
		})
		close(p.quit)
		<-p.exit
	})
}

func asAccessError(op, backend string, err error) error {
	if ae, ok := err.(*AccessError); ok {
		return ae
	}
	return &AccessError{Op: op, Backend: backend, Err: err}
}
