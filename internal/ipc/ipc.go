// Package ipc provides the local Unix-socket channel used by CLI tools
// (copy/paste/status) to talk to a running clipbridge daemon.
//
// The daemon serves the HTTP API on the socket without the network
// allow-list, plus POST /copy for local writes: the socket file is owner-only,
// so whoever can reach it is already the local user.
package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// BaseURL is the URL CLI tools use with HTTPClient. The host part is ignored
// by the socket dialer.
const BaseURL = "http://clipbridge.sock"

const dialTimeout = 2 * time.Second

// SocketPath returns the path of the IPC socket.
//
//   - $CLIPBRIDGE_SOCKET if set
//   - $XDG_RUNTIME_DIR/clipbridge.sock on Linux desktops
//   - $TMPDIR/clipbridge.sock otherwise
func SocketPath() string {
	if s := os.Getenv("CLIPBRIDGE_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipbridge.sock")
	}
	return filepath.Join(os.TempDir(), "clipbridge.sock")
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return net.DialTimeout("unix", SocketPath(), dialTimeout)
}

// Listen creates a listener on the IPC socket path, removing any stale socket
// file first, and restricts the file to its owner.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("ipc chmod %s: %w", path, err)
	}
	return ln, nil
}

// HTTPClient returns an http.Client whose connections all go to the IPC socket.
func HTTPClient() *http.Client {
	path := SocketPath()
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}
