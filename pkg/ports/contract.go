package ports

import (
	"context"
	"testing"
	"time"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLayerStoreContract runs a suite of tests to verify that a LayerStore implementation
// adheres to the defined interface contract.
func RunLayerStoreContract(t *testing.T, store LayerStore) {
	ctx := context.Background()
	layerID := "contract_layer_" + time.Now().Format("20060102150405")

	newLayer := func(id string) *domain.LayerData {
		l := domain.NewLayerData(id, id+".usda")
		l.Specs["/World"] = &domain.PrimSpec{Specifier: domain.SpecifierDef, TypeName: "Xform"}
		l.Specs["/World/Cube"] = &domain.PrimSpec{
			Specifier:  domain.SpecifierDef,
			TypeName:   "Cube",
			Attributes: map[string]any{"purpose": "render"},
			Metadata:   map[string]string{"kind": "component"},
		}
		return l
	}

	t.Run("Save and Load", func(t *testing.T) {
		layer := newLayer(layerID)

		err := store.Save(ctx, layer)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, layerID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, layer.ID, loaded.ID)
		assert.Equal(t, layer.DisplayName, loaded.DisplayName)
		require.Len(t, loaded.Specs, 2)
		cube := loaded.Specs["/World/Cube"]
		require.NotNil(t, cube)
		assert.Equal(t, domain.SpecifierDef, cube.Specifier)
		assert.Equal(t, "Cube", cube.TypeName)
		// Serialization may change numeric types, so only string values are compared strictly.
		assert.Equal(t, "render", cube.Attributes["purpose"])
		assert.Equal(t, "component", cube.Metadata["kind"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		layer := newLayer(layerID)
		delete(layer.Specs, "/World/Cube")
		layer.Specs["/World/Box"] = domain.NewPrimSpec(domain.SpecifierDef, "Cube")
		require.NoError(t, store.Save(ctx, layer))

		loaded, err := store.Load(ctx, layerID)
		require.NoError(t, err)
		assert.Contains(t, loaded.Specs, domain.Path("/World/Box"))
		assert.NotContains(t, loaded.Specs, domain.Path("/World/Cube"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing_"+layerID)
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := layerID + "_1"
		id2 := layerID + "_2"
		require.NoError(t, store.Save(ctx, newLayer(id1)))
		require.NoError(t, store.Save(ctx, newLayer(id2)))

		layers, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, layers, id1)
		assert.Contains(t, layers, id2)
	})

	deleter, ok := store.(LayerDeleter)
	if !ok {
		return
	}

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newLayer(layerID)))

		err := deleter.Delete(ctx, layerID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, layerID)
		assert.ErrorIs(t, err, domain.ErrLayerNotFound, "Load after Delete should return ErrLayerNotFound")
	})
}
