package ports

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// LayerStore persists layers so a stage can be reassembled in a later session.
type LayerStore interface {
	// Save persists the layer, replacing any previous content with the same ID.
	Save(ctx context.Context, layer *domain.LayerData) error

	// Load retrieves a layer by ID.
	// Returns domain.ErrLayerNotFound if the layer does not exist.
	Load(ctx context.Context, id string) (*domain.LayerData, error)

	// List returns the IDs of all stored layers.
	List(ctx context.Context) ([]string, error)
}

// LayerDeleter is implemented by stores that can remove layers.
type LayerDeleter interface {
	Delete(ctx context.Context, id string) error
}
