// Package state holds the single piece of clipboard state shared between the
// local poller and the HTTP handlers.
//
// The store records the most recently accepted text and whether that text
// arrived from the peer. The poller consumes the peer flag on the next change
// it observes; that is what keeps a value received from the peer from being
// pushed straight back.
package state

import (
	"sync"
	"time"
)

// Origin names where the current text came from.
type Origin string

const (
	OriginNone  Origin = ""
	OriginLocal Origin = "local"
	OriginPeer  Origin = "peer"
)

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Text      string
	FromPeer  bool
	Origin    Origin
	UpdatedAt time.Time

	Received   uint64 // values accepted from the peer
	Pushed     uint64 // successful pushes to the peer
	PushFailed uint64
	Echoes     uint64 // local changes recognised as echoes of a peer write
}

// Store guards the current text and the peer-origin flag together.
// The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	text     string
	fromPeer bool
	origin   Origin
	updated  time.Time

	received   uint64
	pushed     uint64
	pushFailed uint64
	echoes     uint64

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{now: time.Now}
}

// Set replaces the text and the origin flag in one step.
func (s *Store) Set(text string, fromPeer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.fromPeer = fromPeer
	s.updated = s.now()
	if fromPeer {
		s.origin = OriginPeer
		s.received++
	} else {
		s.origin = OriginLocal
	}
}

// Get returns the current text.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// ConsumePeerFlag reports whether the last write came from the peer and
// clears the flag. Read and reset happen under one lock, so of two callers
// racing after a peer write exactly one sees true.
func (s *Store) ConsumePeerFlag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.fromPeer
	s.fromPeer = false
	return was
}

// RecordPush counts the outcome of a push to the peer.
func (s *Store) RecordPush(ok bool) {
	s.mu.Lock()
	if ok {
		s.pushed++
	} else {
		s.pushFailed++
	}
	s.mu.Unlock()
}

// RecordEcho counts a suppressed echo.
func (s *Store) RecordEcho() {
	s.mu.Lock()
	s.echoes++
	s.mu.Unlock()
}

// Snapshot returns a copy of the store's fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Text:       s.text,
		FromPeer:   s.fromPeer,
		Origin:     s.origin,
		UpdatedAt:  s.updated,
		Received:   s.received,
		Pushed:     s.pushed,
		PushFailed: s.pushFailed,
		Echoes:     s.echoes,
	}
}
