package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mhamid3d/maya-usd/pkg/adapters/memory"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHandler serves a session "shot" over two layers: "anim" (strongest,
// edit target) overrides /World and defines /World/Light; "root" defines
// /World and /World/Cube.
func newTestHandler(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()

	anim := domain.NewLayerData("anim", "anim.usda")
	anim.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierOver, "")
	anim.Specs["/World/Light"] = domain.NewPrimSpec(domain.SpecifierDef, "SphereLight")

	root := domain.NewLayerData("root", "root.usda")
	root.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierDef, "Xform")
	root.Specs["/World/Cube"] = domain.NewPrimSpec(domain.SpecifierDef, "Cube")

	manager := session.NewManager(memory.NewStore(anim, root))
	handler := NewHandler(manager)

	rec := do(t, handler, "POST", "/sessions", OpenSessionRequest{SessionID: "shot", Layers: []string{"anim", "root"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return handler, manager
}

func do(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := do(t, handler, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	info := decode[map[string]string](t, do(t, handler, "GET", "/info", nil))
	assert.Equal(t, "usdrename-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestSession_LayersAndPrims(t *testing.T) {
	handler, _ := newTestHandler(t)

	sessions := decode[[]string](t, do(t, handler, "GET", "/sessions", nil))
	assert.Equal(t, []string{"shot"}, sessions)

	desc := decode[SessionResponse](t, do(t, handler, "GET", "/sessions/shot/layers", nil))
	assert.Equal(t, "anim", desc.EditTarget)
	require.Len(t, desc.Layers, 2)
	assert.Equal(t, "anim.usda", desc.Layers[0].DisplayName)
	assert.False(t, desc.CanUndo)

	prims := decode[[]domain.Path](t, do(t, handler, "GET", "/sessions/shot/prims", nil))
	assert.Equal(t, []domain.Path{"/World", "/World/Cube", "/World/Light"}, prims)

	rec := do(t, handler, "GET", "/sessions/ghost/prims", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRename_UndoRedo(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World/Light", Name: "Key"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[EditResponse](t, rec)
	require.NotNil(t, resp.Item)
	assert.Equal(t, domain.Path("/World/Key"), resp.Item.Path)
	assert.True(t, resp.CanUndo)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "anim", resp.Changes[0].LayerID)
	assert.Equal(t, []domain.Path{"/World/Key"}, resp.Changes[0].Added)
	assert.Equal(t, []domain.Path{"/World/Light"}, resp.Changes[0].Removed)

	rec = do(t, handler, "POST", "/sessions/shot/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[EditResponse](t, rec)
	require.NotNil(t, resp.Item)
	assert.Equal(t, domain.Path("/World/Light"), resp.Item.Path, "undo hands back the restored prim")
	assert.True(t, resp.CanRedo)
	assert.Equal(t, []domain.Path{"/World/Light"}, resp.Changes[0].Added)

	rec = do(t, handler, "POST", "/sessions/shot/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, handler, "POST", "/sessions/shot/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prims := decode[[]domain.Path](t, do(t, handler, "GET", "/sessions/shot/prims", nil))
	assert.Equal(t, []domain.Path{"/World", "/World/Cube", "/World/Key"}, prims)
}

func TestRename_PreconditionsMapToConflict(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World/Cube", Name: "Box"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "wrong_edit_target", errResp.Code)
	assert.Equal(t, []string{"root.usda"}, errResp.Layers)
	assert.Equal(t, "cannot rename [Cube] defined on another layer: set [root.usda] as the target layer to proceed", errResp.Error)

	rec = do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World", Name: "Set"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp = decode[ErrorResponse](t, rec)
	assert.Equal(t, "ambiguous_layers", errResp.Code)
	assert.Equal(t, []string{"anim.usda", "root.usda"}, errResp.Layers)

	rec = do(t, handler, "PUT", "/sessions/shot/edit-target", EditTargetRequest{Layer: "root"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", decode[SessionResponse](t, rec).EditTarget)

	rec = do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World/Cube", Name: "Box"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRenameAll(t *testing.T) {
	handler, manager := newTestHandler(t)
	ed, err := manager.Get("shot")
	require.NoError(t, err)
	require.NoError(t, ed.Stage().(*memory.Stage).AddSpec(context.Background(), "anim", "/World/Fill", domain.NewPrimSpec(domain.SpecifierDef, "")))

	rec := do(t, handler, "POST", "/sessions/shot/renames", RenameAllRequest{Renames: []RenameRequest{
		{Path: "/World/Light", Name: "Key"},
		{Path: "/World/Fill", Name: "Key"},
	}})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "copy_failed", decode[ErrorResponse](t, rec).Code)
	prims := decode[[]domain.Path](t, do(t, handler, "GET", "/sessions/shot/prims", nil))
	assert.Equal(t, []domain.Path{"/World", "/World/Cube", "/World/Fill", "/World/Light"}, prims)

	rec = do(t, handler, "POST", "/sessions/shot/renames", RenameAllRequest{Renames: []RenameRequest{
		{Path: "/World/Light", Name: "Key"},
		{Path: "/World/Fill", Name: "Rim"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[EditResponse](t, rec)
	assert.Nil(t, resp.Item)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, domain.Path("/World/Rim"), resp.Items[1].Path)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, []domain.Path{"/World/Key", "/World/Rim"}, resp.Changes[0].Added)

	rec = do(t, handler, "POST", "/sessions/shot/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[EditResponse](t, rec).Items, 2)
	assert.False(t, decode[EditResponse](t, rec).CanUndo)

	rec = do(t, handler, "POST", "/sessions/shot/renames", RenameAllRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRename_BadRequests(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name   string
		target string
		body   any
		status int
	}{
		{"malformed body", "/sessions/shot/rename", "not an object", http.StatusBadRequest},
		{"relative path", "/sessions/shot/rename", RenameRequest{Path: "World/Light", Name: "Key"}, http.StatusBadRequest},
		{"invalid name", "/sessions/shot/rename", RenameRequest{Path: "/World/Light", Name: "bad name"}, http.StatusBadRequest},
		{"missing prim", "/sessions/shot/rename", RenameRequest{Path: "/World/Nope", Name: "Key"}, http.StatusNotFound},
		{"unknown session", "/sessions/ghost/rename", RenameRequest{Path: "/World/Light", Name: "Key"}, http.StatusNotFound},
		{"unknown layer", "/sessions/shot/edit-target", EditTargetRequest{Layer: "fx"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := "POST"
			if strings.HasSuffix(tt.target, "edit-target") {
				method = "PUT"
			}
			rec := do(t, handler, method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestSaveAndClose(t *testing.T) {
	handler, manager := newTestHandler(t)
	ctx := context.Background()

	rec := do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World/Light", Name: "Key"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, "POST", "/sessions/shot/save", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	saved, err := manager.Store().Load(ctx, "anim")
	require.NoError(t, err)
	assert.Contains(t, saved.Specs, domain.Path("/World/Key"))

	rec = do(t, handler, "DELETE", "/sessions/shot", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, handler, "DELETE", "/sessions/shot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	handler, _ := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/sessions/shot/events?layers=anim", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	rec := do(t, handler, "POST", "/sessions/shot/rename", RenameRequest{Path: "/World/Light", Name: "Key"})
	require.Equal(t, http.StatusOK, rec.Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"layer_id":"anim"`)
	assert.Contains(t, output, `"/World/Key"`)
}

func TestFilterChanges(t *testing.T) {
	msg := `[{"layer_id":"anim","added":["/A"]},{"layer_id":"root","removed":["/B"]}]`

	out, ok := filterChanges(msg, map[string]bool{"root": true})
	require.True(t, ok)
	assert.JSONEq(t, `[{"layer_id":"root","removed":["/B"]}]`, out)

	_, ok = filterChanges(msg, map[string]bool{"fx": true})
	assert.False(t, ok)
}
