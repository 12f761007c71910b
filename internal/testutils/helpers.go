package testutils

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SampleLayer builds a small layer with a transform, a mesh child and a leaf.
func SampleLayer(id string) *domain.LayerData {
	l := domain.NewLayerData(id, id+".usda")
	l.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierDef, "Xform")
	l.Specs["/World/Table"] = &domain.PrimSpec{
		Specifier:  domain.SpecifierDef,
		TypeName:   "Mesh",
		Attributes: map[string]any{"purpose": "render"},
		Metadata:   map[string]string{"kind": "component"},
	}
	l.Specs["/World/Table/Leg"] = domain.NewPrimSpec(domain.SpecifierDef, "Mesh")
	return l
}
