package ports

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// ChangeListener receives stage change notices. The context is the one passed to
// the mutating call, so listeners can tell which operation caused the change.
type ChangeListener func(ctx context.Context, notice *domain.ChangeNotice)

// Stage is a layered scene-description store: an ordered stack of layers, each a
// sparse overlay of path-keyed prim specs, strongest first.
type Stage interface {
	// LayerStack returns the layers ordered strongest first.
	LayerStack() []domain.LayerInfo

	// Layer returns the identity of a layer in the stack.
	Layer(id string) (domain.LayerInfo, bool)

	// EditTarget returns the ID of the layer that receives edits.
	EditTarget() string

	// PrimStack returns the IDs of every layer holding an opinion at path,
	// strongest first. It is empty when no layer has a spec there.
	PrimStack(path domain.Path) []string

	// DefiningLayer returns the strongest layer whose spec at path defines the
	// prim. When it reports ok, PrimStack(path) includes that layer.
	DefiningLayer(path domain.Path) (string, bool)

	// CopySpec copies the spec at (srcLayer, srcPath) and its subtree to
	// (dstLayer, dstPath). On failure the stage is left unchanged.
	CopySpec(ctx context.Context, srcLayer string, srcPath domain.Path, dstLayer string, dstPath domain.Path) error

	// RemovePrim removes the spec subtree at path from the current edit target.
	RemovePrim(ctx context.Context, path domain.Path) error

	// DefinePrim authors an empty defining spec at path in the current edit target.
	DefinePrim(ctx context.Context, path domain.Path) error

	// WithEditTarget runs fn with the edit target pinned to layer and restores
	// the previous target afterwards, whatever fn returns.
	WithEditTarget(ctx context.Context, layer string, fn func(ctx context.Context) error) error

	// PrimAt returns a reference to the composed prim at path.
	PrimAt(path domain.Path) (domain.PrimRef, bool)

	// Resolve dereferences ref. It fails with domain.ErrStaleItem when the prim
	// was removed or recreated since ref was taken.
	Resolve(ref domain.PrimRef) (domain.Path, error)

	// Subscribe registers a change listener and returns a function removing it.
	Subscribe(fn ChangeListener) (unsubscribe func())
}

// StageEditor is implemented by stages whose edit target and layer content can
// be driven from outside a command, such as editors and persistence.
type StageEditor interface {
	Stage

	// SetEditTarget retargets edits to layer.
	SetEditTarget(layer string) error

	// Prims returns the paths of every composed prim in lexical order.
	Prims() []domain.Path

	// Spec returns a copy of the spec a layer authors at path.
	Spec(layer string, path domain.Path) (*domain.PrimSpec, bool)

	// Export returns a copy of a layer's content.
	Export(layer string) (*domain.LayerData, error)
}
