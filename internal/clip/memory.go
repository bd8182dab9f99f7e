package clip

import "sync"

// Memory is an in-process clipboard. It stands in for the system clipboard on
// headless hosts and in tests.
type Memory struct {
	mu       sync.Mutex
	text     string
	readErr  error
	writeErr error
	writes   int
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", &AccessError{Op: "read", Backend: "memory", Err: m.readErr}
	}
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return &AccessError{Op: "write", Backend: "memory", Err: m.writeErr}
	}
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) Close() {}

// SetText replaces the text as if a user had copied it, bypassing any
// injected write error.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Fail makes subsequent reads and writes fail with the given errors. Pass nil
// to clear.
func (m *Memory) Fail(readErr, writeErr error) {
	m.mu.Lock()
	m.readErr = readErr
	m.writeErr = writeErr
	m.mu.Unlock()
}

// Writes returns the number of successful Write calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
