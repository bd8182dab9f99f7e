// Package clip provides text access to the local system clipboard.
// The backend is chosen by name:
//
//	system: golang.design/x/clipboard, every call run on one locked OS thread
//	exec:   github.com/atotto/clipboard (pbcopy, xclip, xsel, wl-clipboard, win32)
//	memory: in-process value for headless hosts and tests
package clip

import (
	"errors"
	"fmt"
)

const (
	KindSystem = "system"
	KindExec   = "exec"
	KindMemory = "memory"
)

// Kinds lists the accepted backend names.
var Kinds = []string{KindSystem, KindExec, KindMemory}

var (
	// ErrUnavailable means the platform clipboard cannot be used at all.
	ErrUnavailable = errors.New("clipboard unavailable")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("clipboard backend closed")
)

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard text. An empty string means the
	// clipboard is empty or holds no text.
	Read() (string, error)

	// Write replaces the clipboard contents with text.
	Write(text string) error

	// Close releases any resources held by the backend.
	Close()
}

// AccessError reports a failed clipboard operation.
type AccessError struct {
	Op      string // "init", "read" or "write"
	Backend string
	Err     error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("clipboard %s (%s): %v", e.Op, e.Backend, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// New returns the backend registered under kind. An empty kind selects the
// system backend.
func New(kind string) (Backend, error) {
	switch kind {
	case KindSystem, "":
		return newSystem()
	case KindExec:
		return newExec()
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", kind)
	}
}

// ValidKind reports whether kind names a known backend.
func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
