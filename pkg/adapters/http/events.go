package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// The optional "layers" query parameter is a comma-separated list of layer IDs
// whose changes the client wants; other changes are filtered out.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.Sessions.Get(sessionID); err != nil {
		s.fail(w, "SubscribeEvents", err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watch map[string]bool
	if raw := r.URL.Query().Get("layers"); raw != "" {
		watch = make(map[string]bool)
		for _, id := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(id)] = true
		}
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil {
				msg, ok = filterChanges(msg, watch)
				if !ok {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// filterChanges keeps the diffs of watched layers. It reports false when none
// remain.
func filterChanges(msg string, watch map[string]bool) (string, bool) {
	var changes []*domain.LayerDiff
	if err := json.Unmarshal([]byte(msg), &changes); err != nil {
		return msg, true
	}
	kept := changes[:0]
	for _, c := range changes {
		if watch[c.LayerID] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	bytes, err := json.Marshal(kept)
	if err != nil {
		return msg, true
	}
	return string(bytes), true
}

func sortDiffs(changes []*domain.LayerDiff) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].LayerID < changes[j].LayerID })
}
