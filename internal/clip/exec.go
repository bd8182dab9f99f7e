package clip

import (
	"github.com/atotto/clipboard"
)

// execBackend shells out to the platform clipboard tools. It needs no thread
// affinity and is useful where the system backend cannot initialise, such as
// Wayland sessions without an X server.
type execBackend struct{}

func newExec() (Backend, error) {
	if clipboard.Unsupported {
		return nil, &AccessError{Op: "init", Backend: "exec", Err: ErrUnavailable}
	}
	return execBackend{}, nil
}

func (execBackend) Name() string { return "exec (atotto/clipboard)" }

func (execBackend) Read() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", &AccessError{Op: "read", Backend: "exec", Err: err}
	}
	return text, nil
}

func (execBackend) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return &AccessError{Op: "write", Backend: "exec", Err: err}
	}
	return nil
}

func (execBackend) Close() {}
