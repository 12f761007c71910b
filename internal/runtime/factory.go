package runtime

import (
	"context"
	"fmt"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

var _ ports.ItemFactory = (*StageItemFactory)(nil)

// StageItemFactory mints Items from a stage's prim table.
type StageItemFactory struct {
	stage ports.Stage
}

// NewItemFactory creates a factory bound to stage.
func NewItemFactory(stage ports.Stage) *StageItemFactory {
	return &StageItemFactory{stage: stage}
}

// Item returns a handle to the prim currently at path.
func (f *StageItemFactory) Item(ctx context.Context, path domain.Path) (*domain.Item, error) {
	ref, ok := f.stage.PrimAt(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPrimNotFound, path)
	}
	return &domain.Item{Path: path, Ref: ref}, nil
}

// SiblingItem returns a handle to the prim named newName next to path.
func (f *StageItemFactory) SiblingItem(ctx context.Context, path domain.Path, newName string) (*domain.Item, error) {
	sibling, err := path.Parent().AppendChild(newName)
	if err != nil {
		return nil, err
	}
	return f.Item(ctx, sibling)
}
