// Package remotepeer is the HTTP client side of the peer contract. The daemon
// uses it to push local changes to its peer; the CLI tools use it to query a
// daemon over TCP or the local IPC socket.
package remotepeer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.klb.dev/clipbridge/internal/message"
)

// DefaultTimeout bounds a single request. It stays under the default poll
// interval so a hung peer never delays the next tick.
const DefaultTimeout = 800 * time.Millisecond

// SourceHeader names the sending host on pushes.
const SourceHeader = "X-Clipbridge-Source"

// ErrPeerUnreachable wraps every transport, status or response decoding failure.
var ErrPeerUnreachable = errors.New("peer unreachable")

// Client talks to one clipbridge daemon.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	source  string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, e.g. to dial a Unix socket.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSource sets the value sent in SourceHeader.
func WithSource(source string) Option {
	return func(c *Client) { c.source = source }
}

// New builds a Client for addr, which may be host:port or a full http URL.
func New(addr string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Addr returns the peer's base URL.
func (c *Client) Addr() string { return c.baseURL.String() }

// Push sends text to the peer's POST /clipboard. It is fire-and-forget: the
// caller logs the error and the next local change tries again.
func (c *Client) Push(ctx context.Context, text string) error {
	var ack message.Ack
	if err := c.do(ctx, http.MethodPost, "/clipboard", message.Clipboard{Text: text}, &ack); err != nil {
		return err
	}
	return nil
}

// Copy sends text to POST /copy, which only a daemon's IPC socket serves. The
// daemon treats it as a local copy and pushes it on to its own peer.
func (c *Client) Copy(ctx context.Context, text string) error {
	var ack message.Ack
	return c.do(ctx, http.MethodPost, "/copy", message.Clipboard{Text: text}, &ack)
}

// Fetch returns the peer's current text from GET /clipboard.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	var payload message.Clipboard
	if err := c.do(ctx, http.MethodGet, "/clipboard", nil, &payload); err != nil {
		return "", err
	}
	return payload.Text, nil
}

// Status returns the peer's GET /status snapshot.
func (c *Client) Status(ctx context.Context) (message.StatusResponse, error) {
	var payload message.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &payload); err != nil {
		return message.StatusResponse{}, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(b)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.source != "" {
		req.Header.Set(SourceHeader, c.source)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrPeerUnreachable, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrPeerUnreachable, method, endpoint, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s %s: %v", ErrPeerUnreachable, method, path, err)
		}
	}
	return nil
}

func parseBaseURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("peer address is empty")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse peer address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("peer address: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("peer address %q has no host", addr)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}
