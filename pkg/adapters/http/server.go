package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// Sessions is the part of session.Manager the server drives.
type Sessions interface {
	Open(ctx context.Context, sessionID string, layerIDs []string) (*mayausd.Editor, error)
	Get(sessionID string) (*mayausd.Editor, error)
	Save(ctx context.Context, sessionID string) error
	Close(ctx context.Context, sessionID string) error
	List() []string
	WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error
}

// Server exposes rename sessions over REST.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the sessions.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.Logger)
	return server.Routes(chi.NewRouter())
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) chi.Router {
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.OpenSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.CloseSession)
			r.Get("/layers", s.GetLayers)
			r.Get("/prims", s.GetPrims)
			r.Put("/edit-target", s.SetEditTarget)
			r.Post("/rename", s.Rename)
			r.Post("/renames", s.RenameAll)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/save", s.Save)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

// OpenSessionRequest is the body of POST /sessions.
type OpenSessionRequest struct {
	SessionID string   `json:"session_id"`
	Layers    []string `json:"layers"`
}

// RenameRequest is the body of POST /sessions/{id}/rename.
type RenameRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// RenameAllRequest is the body of POST /sessions/{id}/renames.
type RenameAllRequest struct {
	Renames []RenameRequest `json:"renames"`
}

// EditTargetRequest is the body of PUT /sessions/{id}/edit-target.
type EditTargetRequest struct {
	Layer string `json:"layer"`
}

// SessionResponse describes an open session.
type SessionResponse struct {
	SessionID  string             `json:"session_id"`
	Layers     []domain.LayerInfo `json:"layers"`
	EditTarget string             `json:"edit_target"`
	CanUndo    bool               `json:"can_undo"`
	CanRedo    bool               `json:"can_redo"`
}

// EditResponse is returned by rename, undo and redo. Items holds the handles
// to every prim the edit moved; Item repeats it when there is exactly one.
type EditResponse struct {
	Item    *domain.Item        `json:"item,omitempty"`
	Items   []*domain.Item      `json:"items,omitempty"`
	Changes []*domain.LayerDiff `json:"changes"`
	CanUndo bool                `json:"can_undo"`
	CanRedo bool                `json:"can_redo"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Layers []string `json:"layers,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "usdrename-http",
		"version": mayausd.Version,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.List())
}

// OpenSession handles the POST /sessions request.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "OpenSession", fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if body.SessionID == "" {
		s.fail(w, "OpenSession", errors.New("session_id is required"), http.StatusBadRequest)
		return
	}

	ed, err := s.Sessions.Open(r.Context(), body.SessionID, body.Layers)
	if err != nil {
		s.fail(w, "OpenSession", err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, describe(body.SessionID, ed))
}

// CloseSession handles the DELETE /sessions/{id} request.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Sessions.Close(r.Context(), sessionID); err != nil {
		s.fail(w, "CloseSession", err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLayers handles the GET /sessions/{id}/layers request.
func (s *Server) GetLayers(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ed, err := s.Sessions.Get(sessionID)
	if err != nil {
		s.fail(w, "GetLayers", err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, describe(sessionID, ed))
}

// GetPrims handles the GET /sessions/{id}/prims request.
func (s *Server) GetPrims(w http.ResponseWriter, r *http.Request) {
	ed, err := s.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetPrims", err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, ed.Stage().Prims())
}

// SetEditTarget handles the PUT /sessions/{id}/edit-target request.
func (s *Server) SetEditTarget(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var body EditTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "SetEditTarget", fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	var ed *mayausd.Editor
	err := s.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		var err error
		if ed, err = s.Sessions.Get(sessionID); err != nil {
			return err
		}
		return ed.SetEditTarget(body.Layer)
	})
	if err != nil {
		s.fail(w, "SetEditTarget", err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, describe(sessionID, ed))
}

// Rename handles the POST /sessions/{id}/rename request.
func (s *Server) Rename(w http.ResponseWriter, r *http.Request) {
	var body RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "Rename", fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	path, err := domain.ParsePath(body.Path)
	if err != nil {
		s.fail(w, "Rename", err, http.StatusBadRequest)
		return
	}

	s.edit(w, r, "Rename", func(ctx context.Context, ed *mayausd.Editor) ([]*domain.Item, error) {
		item, err := ed.RenamePath(ctx, path, body.Name)
		if err != nil {
			return nil, err
		}
		return []*domain.Item{item}, nil
	})
}

// RenameAll handles the POST /sessions/{id}/renames request. The renames are
// applied as one undoable step, or not at all.
func (s *Server) RenameAll(w http.ResponseWriter, r *http.Request) {
	var body RenameAllRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "RenameAll", fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if len(body.Renames) == 0 {
		s.fail(w, "RenameAll", errors.New("renames is required"), http.StatusBadRequest)
		return
	}
	ops := make([]mayausd.RenameOp, len(body.Renames))
	for i, req := range body.Renames {
		path, err := domain.ParsePath(req.Path)
		if err != nil {
			s.fail(w, "RenameAll", err, http.StatusBadRequest)
			return
		}
		ops[i] = mayausd.RenameOp{Path: path, Name: req.Name}
	}

	s.edit(w, r, "RenameAll", func(ctx context.Context, ed *mayausd.Editor) ([]*domain.Item, error) {
		return ed.RenameAll(ctx, ops)
	})
}

// Undo handles the POST /sessions/{id}/undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, "Undo", func(ctx context.Context, ed *mayausd.Editor) ([]*domain.Item, error) {
		return ed.Undo(ctx)
	})
}

// Redo handles the POST /sessions/{id}/redo request.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, "Redo", func(ctx context.Context, ed *mayausd.Editor) ([]*domain.Item, error) {
		return ed.Redo(ctx)
	})
}

// Save handles the POST /sessions/{id}/save request.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Save(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, "Save", err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// edit runs fn under the session lock, then answers with the layer diffs it
// caused and broadcasts them to the session's event subscribers.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context, *mayausd.Editor) ([]*domain.Item, error)) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		ed      *mayausd.Editor
		items   []*domain.Item
		changes []*domain.LayerDiff
	)
	err := s.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		var err error
		if ed, err = s.Sessions.Get(sessionID); err != nil {
			return err
		}
		before, err := snapshot(ed)
		if err != nil {
			return err
		}
		if items, err = fn(ctx, ed); err != nil {
			return err
		}
		after, err := snapshot(ed)
		if err != nil {
			return err
		}
		changes = diff(before, after)
		return nil
	})
	if err != nil {
		s.fail(w, name, err, statusFor(err))
		return
	}

	if len(changes) > 0 {
		s.Logger.Debug(name+": diff calculated", "session_id", sessionID, "layers", len(changes))
		if bytes, err := json.Marshal(changes); err == nil {
			s.Streams.Broadcast(sessionID, string(bytes))
		}
	}

	resp := EditResponse{
		Items:   items,
		Changes: changes,
		CanUndo: ed.CanUndo(),
		CanRedo: ed.CanRedo(),
	}
	if len(items) == 1 {
		resp.Item = items[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, name string, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error(name+" failed", "err", err)
	} else {
		s.Logger.Warn(name+" rejected", "err", err)
	}

	resp := ErrorResponse{Error: err.Error()}
	var renameErr *domain.RenameError
	if errors.As(err, &renameErr) {
		resp.Code = renameErr.Kind.String()
		resp.Layers = renameErr.Layers
	}
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		resp.Code = string(txErr.Step) + "_failed"
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrLayerNotFound),
		errors.Is(err, domain.ErrPrimNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoDefiningLayer),
		errors.Is(err, domain.ErrWrongEditTarget),
		errors.Is(err, domain.ErrAmbiguousLayers),
		errors.Is(err, domain.ErrPrimExists),
		errors.Is(err, domain.ErrStaleItem),
		errors.Is(err, domain.ErrNothingToUndo),
		errors.Is(err, domain.ErrNothingToRedo):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func describe(sessionID string, ed *mayausd.Editor) SessionResponse {
	stage := ed.Stage()
	return SessionResponse{
		SessionID:  sessionID,
		Layers:     stage.LayerStack(),
		EditTarget: stage.EditTarget(),
		CanUndo:    ed.CanUndo(),
		CanRedo:    ed.CanRedo(),
	}
}

func snapshot(ed *mayausd.Editor) (map[string]*domain.LayerData, error) {
	stage := ed.Stage()
	layers := make(map[string]*domain.LayerData)
	for _, info := range stage.LayerStack() {
		data, err := stage.Export(info.ID)
		if err != nil {
			return nil, err
		}
		layers[info.ID] = data
	}
	return layers, nil
}

func diff(before, after map[string]*domain.LayerData) []*domain.LayerDiff {
	var changes []*domain.LayerDiff
	for id, next := range after {
		if d := domain.DiffLayers(before[id], next); d != nil {
			changes = append(changes, d)
		}
	}
	sortDiffs(changes)
	return changes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
