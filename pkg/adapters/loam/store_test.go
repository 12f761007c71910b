package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/mhamid3d/maya-usd/internal/testutils"
	loamAdapter "github.com/mhamid3d/maya-usd/pkg/adapters/loam"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *loamAdapter.Store {
	t.Helper()
	root, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false), loam.WithForceTemp(false))
	return &loamAdapter.Store{
		Root: root,
		Repo: loam.NewTypedRepository[loamAdapter.LayerMetadata](repo),
	}
}

func TestLoamStore_Contract(t *testing.T) {
	ports.RunLayerStoreContract(t, newStore(t))
}

func TestLoamStore_RoundTripsSubtree(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	layer := testutils.SampleLayer("set")

	require.NoError(t, store.Save(ctx, layer))
	loaded, err := store.Load(ctx, "set")
	require.NoError(t, err)

	assert.Equal(t, "set.usda", loaded.DisplayName)
	assert.Equal(t, layer.Paths(), loaded.Paths())
	assert.Nil(t, domain.DiffLayers(layer, loaded), "specs survive a save/load cycle")
}

func TestLoamStore_WritesMarkdown(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, testutils.SampleLayer("set")))

	raw, err := os.ReadFile(filepath.Join(store.Root, "set"+loamAdapter.Ext))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "display_name: set.usda")
	assert.Contains(t, string(raw), "- `/World/Table/Leg`")
}

func TestLoamStore_ReadsHandWrittenDocument(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	doc := `---
id: props
specs:
  /Props:
    specifier: def
    type_name: Scope
  /Props/Lamp:
    specifier: over
    attributes:
      intensity: 3
---
Props layer.
`
	require.NoError(t, os.WriteFile(filepath.Join(store.Root, "props.md"), []byte(doc), 0644))

	layer, err := store.Load(ctx, "props")
	require.NoError(t, err)
	assert.Equal(t, "props", layer.ID)
	require.Contains(t, layer.Specs, domain.Path("/Props/Lamp"))
	assert.Equal(t, domain.SpecifierOver, layer.Specs["/Props/Lamp"].Specifier)
	assert.Equal(t, "Scope", layer.Specs["/Props"].TypeName)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"props"}, ids)
}

func TestLoamStore_RejectsInvalidSpecs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	doc := `---
id: broken
specs:
  /Bad:
    specifier: maybe
---
`
	require.NoError(t, os.WriteFile(filepath.Join(store.Root, "broken.md"), []byte(doc), 0644))

	_, err := store.Load(ctx, "broken")
	assert.ErrorContains(t, err, "invalid specifier")
}

func TestLoamStore_UnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Load(ctx, "../escape")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLayerNotFound)
	assert.Error(t, store.Save(ctx, domain.NewLayerData("", "")))
}
