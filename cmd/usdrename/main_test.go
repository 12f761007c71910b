package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/mhamid3d/maya-usd/internal/presentation/tui"
	"github.com/mhamid3d/maya-usd/pkg/adapters/file"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedConfig writes an anim/root stack into a file store and returns a config
// pointing at it.
func seedConfig(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)

	anim := domain.NewLayerData("anim", "anim.usda")
	anim.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierOver, "")
	anim.Specs["/World/Light"] = domain.NewPrimSpec(domain.SpecifierDef, "SphereLight")
	require.NoError(t, store.Save(ctx, anim))

	root := domain.NewLayerData("root", "root.usda")
	root.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierDef, "Xform")
	root.Specs["/World/Cube"] = domain.NewPrimSpec(domain.SpecifierDef, "Cube")
	require.NoError(t, store.Save(ctx, root))

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.BackendFile, Path: dir}
	cfg.Layers = []string{"anim", "root"}
	cfg.Log.Level = "error"
	return cfg
}

func TestRunRename(t *testing.T) {
	ctx := context.Background()
	cfg := seedConfig(t)
	var out bytes.Buffer

	require.NoError(t, runRename(ctx, cfg, "/World/Light", "Key", false, &out, tui.NewPalette("")))
	assert.Contains(t, out.String(), "/World/Key")

	saved, err := file.New(cfg.Store.Path).Load(ctx, "anim")
	require.NoError(t, err)
	assert.Contains(t, saved.Specs, domain.Path("/World/Key"))
	assert.NotContains(t, saved.Specs, domain.Path("/World/Light"))

	err = runRename(ctx, cfg, "/World/Cube", "Box", false, &out, tui.NewPalette(""))
	assert.ErrorIs(t, err, domain.ErrWrongEditTarget)

	cfg.EditTarget = "root"
	out.Reset()
	require.NoError(t, runRename(ctx, cfg, "/World/Cube", "Box", true, &out, tui.NewPalette("")))
	assert.Contains(t, out.String(), "can be renamed in root")

	untouched, err := file.New(cfg.Store.Path).Load(ctx, "root")
	require.NoError(t, err)
	assert.Contains(t, untouched.Specs, domain.Path("/World/Cube"), "a dry run saves nothing")

	assert.ErrorIs(t, runRename(ctx, cfg, "World", "Box", false, &out, tui.NewPalette("")), domain.ErrInvalidPath)
}

func TestRunInspect(t *testing.T) {
	ctx := context.Background()
	cfg := seedConfig(t)
	cfg.UI.CodeTheme = "notty"

	var out bytes.Buffer
	require.NoError(t, runInspect(ctx, cfg, "mermaid", &out))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))
	assert.Contains(t, out.String(), "p__World__Cube")

	out.Reset()
	require.NoError(t, runInspect(ctx, cfg, "json", &out))
	assert.Contains(t, out.String(), `"Path": "/World/Light"`)

	out.Reset()
	require.NoError(t, runInspect(ctx, cfg, "markdown", &out))
	assert.Contains(t, out.String(), "anim.usda")

	assert.Error(t, runInspect(ctx, cfg, "xml", &out))
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	flags := cmd.Flags()
	flags.AddFlagSet(rootCmd.PersistentFlags())

	require.NoError(t, flags.Set("config", t.TempDir()+"/missing.yaml"))
	require.NoError(t, flags.Set("store", "memory"))
	require.NoError(t, flags.Set("layers", "anim,root"))
	require.NoError(t, flags.Set("log-level", "debug"))
	require.NoError(t, flags.Set("log-format", "json"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, []string{"anim", "root"}, cfg.Layers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestServeHandler(t *testing.T) {
	cfg := seedConfig(t)
	b, err := cli.NewBackend(cfg.Store)
	require.NoError(t, err)

	handler := newServeHandler(cfg, b, prometheus.NewRegistry())

	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"session_id":"s1","layers":["anim","root"]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest("POST", "/sessions/s1/rename", strings.NewReader(`{"path":"/World/Light","name":"Key"}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `usdrename_commands_total{command="rename",op="execute",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "usdrename_rename_events_total 1")
}
