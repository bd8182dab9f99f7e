// Package message defines the clipbridge HTTP payloads.
//
// Both directions of the peer contract use plain JSON:
//
//	POST /clipboard  {"text": "..."}            → 200 {"message": "Clipboard updated."}
//	GET  /clipboard                             → 200 {"text": "..."}
//	GET  /status                                → 200 StatusResponse
//
// Field names are matched case-insensitively on decode, so {"Text": "..."} is
// accepted from peers that serialise with capitalised names.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Updated is the message returned after a successful POST /clipboard.
const Updated = "Clipboard updated."

var (
	// ErrEmptyText is returned when a clipboard payload has no text.
	ErrEmptyText = errors.New("text is required")
	// ErrMalformed is returned when a clipboard payload is not a JSON object.
	ErrMalformed = errors.New("malformed clipboard payload")

	errTrailingData = errors.New("unexpected data after JSON object")
)

// Clipboard carries clipboard text in both directions.
type Clipboard struct {
	Text string `json:"text"`
}

// Ack is the body of a successful POST /clipboard.
type Ack struct {
	Message string `json:"message"`
}

// StatusResponse describes a running daemon.
type StatusResponse struct {
	Version   string    `json:"version"`
	Source    string    `json:"source"`
	Backend   string    `json:"backend"`
	Peer      string    `json:"peer"`
	Origin    string    `json:"origin,omitempty"`
	Length    int       `json:"length"`
	Preview   string    `json:"preview,omitempty"`
	FromPeer  bool      `json:"from_peer"`
	UpdatedAt time.Time `json:"updated_at"`

	Received   uint64 `json:"received"`
	Pushed     uint64 `json:"pushed"`
	PushFailed uint64 `json:"push_failed"`
	Echoes     uint64 `json:"echoes"`
}

// DecodeClipboard reads a clipboard payload from r and validates it. The
// returned error wraps ErrMalformed or ErrEmptyText.
func DecodeClipboard(r io.Reader) (Clipboard, error) {
	var c Clipboard
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Clipboard{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	// The body must hold exactly one value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return Clipboard{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if c.Text == "" {
		return Clipboard{}, ErrEmptyText
	}
	return c, nil
}
