// Package httpapi serves the clipbridge HTTP API: the peer pushes to
// POST /clipboard and reads GET /clipboard; CLI tools read GET /status and,
// over the IPC socket only, write with POST /copy.
//
// The handler returned by Service.Handler performs no caller filtering;
// wrap it with access.AllowList.Wrap for network listeners.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/logging"
	"go.klb.dev/clipbridge/internal/message"
	"go.klb.dev/clipbridge/internal/remotepeer"
	"go.klb.dev/clipbridge/internal/state"
)

// DefaultMaxBody caps POST /clipboard bodies.
const DefaultMaxBody = 1 << 20

const requestIDHeader = "X-Request-Id"

type ctxKey struct{}

// Info describes the daemon in GET /status.
type Info struct {
	Version string
	Source  string
	Peer    string
}

// Service implements the HTTP endpoints on top of the shared store and the
// local clipboard.
type Service struct {
	store   *state.Store
	backend clip.Backend
	info    Info
	maxBody int64
	log     *slog.Logger
}

// New returns a Service. maxBody <= 0 selects DefaultMaxBody.
func New(store *state.Store, backend clip.Backend, info Info, maxBody int64) *Service {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Service{
		store:   store,
		backend: backend,
		info:    info,
		maxBody: maxBody,
		log:     slog.With("component", "http"),
	}
}

// Handler returns the routed API for network listeners.
func (s *Service) Handler() http.Handler {
	return s.routes(false)
}

// LocalHandler returns Handler's routes plus POST /copy, which places text on
// the local clipboard as a local change. Serve it only on the IPC socket.
func (s *Service) LocalHandler() http.Handler {
	return s.routes(true)
}

func (s *Service) routes(local bool) http.Handler {
	mux := http.NewServeMux()
	if local {
		mux.HandleFunc("POST /copy", s.handleCopy)
	}
	mux.HandleFunc("POST /clipboard", s.handlePush)
	mux.HandleFunc("GET /clipboard", s.handleQuery)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	return withRequestID(mux)
}

// handlePush accepts text from the peer. The store is updated before the
// clipboard write; if the write fails the store keeps the new text and the
// caller gets a 500.
func (s *Service) handlePush(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", requestID(r.Context()), "source", sourceOf(r))

	payload, ok := s.decode(w, r, log)
	if !ok {
		return
	}

	s.store.Set(payload.Text, true)

	// The poller only consumes the peer flag when the clipboard changes. If it
	// already holds this text there will be no change, and a flag left set
	// would mark the next local copy as an echo.
	if cur, err := s.backend.Read(); err == nil && cur == payload.Text {
		s.store.ConsumePeerFlag()
		log.Debug("clipboard already holds peer text")
	}

	if err := s.backend.Write(payload.Text); err != nil {
		log.Error("local clipboard write failed", "err", err)
		http.Error(w, "Failed to update clipboard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info("clipboard received from peer", "bytes", len(payload.Text))
	log.Debug("clipboard item", "preview", logging.Preview(payload.Text))
	writeJSON(w, http.StatusOK, message.Ack{Message: message.Updated})
}

// handleCopy puts text from a local CLI on the clipboard. The store is left
// to the poller, which sees the change on its next tick and pushes it.
func (s *Service) handleCopy(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", requestID(r.Context()), "source", sourceOf(r))

	payload, ok := s.decode(w, r, log)
	if !ok {
		return
	}

	// A pending peer flag belongs to an earlier peer write; this change is local.
	s.store.ConsumePeerFlag()

	if err := s.backend.Write(payload.Text); err != nil {
		log.Error("local clipboard write failed", "err", err)
		http.Error(w, "Failed to update clipboard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info("clipboard copied locally", "bytes", len(payload.Text))
	writeJSON(w, http.StatusOK, message.Ack{Message: message.Updated})
}

// decode reads and validates a clipboard payload, writing the error response
// itself when it reports false.
func (s *Service) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (message.Clipboard, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	payload, err := message.DecodeClipboard(r.Body)
	if err == nil {
		return payload, true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		log.Warn("clipboard payload too large", "limit", tooBig.Limit)
		http.Error(w, "Request body too large.", http.StatusRequestEntityTooLarge)
		return message.Clipboard{}, false
	}
	log.Debug("clipboard payload rejected", "err", err)
	if errors.Is(err, message.ErrEmptyText) {
		http.Error(w, "Invalid request: 'text' is required.", http.StatusBadRequest)
		return message.Clipboard{}, false
	}
	http.Error(w, "Invalid request: body must be a JSON object with a 'text' field.", http.StatusBadRequest)
	return message.Clipboard{}, false
}

func (s *Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("clipboard queried", "request_id", requestID(r.Context()), "source", sourceOf(r))
	writeJSON(w, http.StatusOK, message.Clipboard{Text: s.store.Get()})
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, message.StatusResponse{
		Version:    s.info.Version,
		Source:     s.info.Source,
		Backend:    s.backend.Name(),
		Peer:       s.info.Peer,
		Origin:     string(snap.Origin),
		Length:     len(snap.Text),
		Preview:    logging.Preview(snap.Text),
		FromPeer:   snap.FromPeer,
		UpdatedAt:  snap.UpdatedAt,
		Received:   snap.Received,
		Pushed:     snap.Pushed,
		PushFailed: snap.PushFailed,
		Echoes:     snap.Echoes,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withRequestID tags each request with an id, reusing one the caller sent.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func sourceOf(r *http.Request) string {
	if src := r.Header.Get(remotepeer.SourceHeader); src != "" {
		return src
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
