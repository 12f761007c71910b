package ports

import "context"

// UndoableCommand is the contract between a command and the history manager
// that drives it. Execute is the first Redo.
type UndoableCommand interface {
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
}
