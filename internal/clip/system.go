//go:build darwin || linux || windows

package clip

import (
	"errors"
	"fmt"

	"golang.design/x/clipboard"
)

const systemName = "system (golang.design/x/clipboard)"

// systemBackend talks to the OS clipboard directly. It is only ever used
// behind Pinned, so clipboard.Init and every later call share one thread.
type systemBackend struct{}

// newSystem starts the pinned thread and initialises the clipboard on it.
// Initialisation failure is fatal for the caller.
func newSystem() (Backend, error) {
	p := Pin(systemBackend{})
	if err := p.Do(clipboard.Init); err != nil {
		p.Close()
		return nil, &AccessError{Op: "init", Backend: systemName, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	return p, nil
}

func (systemBackend) Name() string { return systemName }

// Read returns "" when the clipboard holds no text; the library does not
// distinguish an empty clipboard from non-text content.
func (systemBackend) Read() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (systemBackend) Write(text string) error {
	if changed := clipboard.Write(clipboard.FmtText, []byte(text)); changed == nil {
		return errors.New("write rejected by platform clipboard")
	}
	return nil
}

func (systemBackend) Close() {}
