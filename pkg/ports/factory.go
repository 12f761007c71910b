package ports

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// ItemFactory mints Items.
type ItemFactory interface {
	// Item returns a handle to the prim currently at path.
	Item(ctx context.Context, path domain.Path) (*domain.Item, error)

	// SiblingItem returns a handle to the prim named newName under the parent of path.
	SiblingItem(ctx context.Context, path domain.Path, newName string) (*domain.Item, error)
}
