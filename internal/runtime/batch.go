package runtime

import (
	"context"
	"errors"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

var _ ports.UndoableCommand = Batch(nil)

// Batch runs several commands as one history entry, all or nothing.
// When a child fails, the children already applied are reverted in reverse
// order and the failure is returned joined with any error from reverting them.
type Batch []ports.UndoableCommand

// Execute executes every child in order.
func (b Batch) Execute(ctx context.Context) error {
	return b.forward(ctx, ports.UndoableCommand.Execute)
}

// Redo redoes every child in order.
func (b Batch) Redo(ctx context.Context) error {
	return b.forward(ctx, ports.UndoableCommand.Redo)
}

// Undo undoes every child in reverse order. A failing child leaves the batch
// applied: the children already undone are redone.
func (b Batch) Undo(ctx context.Context) error {
	for i := len(b) - 1; i >= 0; i-- {
		if err := b[i].Undo(ctx); err != nil {
			errs := []error{err}
			for _, cmd := range b[i+1:] {
				errs = append(errs, cmd.Redo(ctx))
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

func (b Batch) forward(ctx context.Context, apply func(ports.UndoableCommand, context.Context) error) error {
	for i, cmd := range b {
		if err := apply(cmd, ctx); err != nil {
			errs := []error{err}
			for j := i - 1; j >= 0; j-- {
				errs = append(errs, b[j].Undo(ctx))
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

// Items returns the current handle of every prim the batch moves, in order.
func (b Batch) Items() []*domain.Item {
	var items []*domain.Item
	for _, cmd := range b {
		items = append(items, Items(cmd)...)
	}
	return items
}

// Items returns the live handles of the prims cmd moved: the renamed prims
// after an execute or redo, the restored ones after an undo. Commands that
// track no handles yield nil.
func Items(cmd ports.UndoableCommand) []*domain.Item {
	switch c := cmd.(type) {
	case *RenameCommand:
		if item := c.Item(); item != nil {
			return []*domain.Item{item}
		}
	case Batch:
		return c.Items()
	}
	return nil
}
