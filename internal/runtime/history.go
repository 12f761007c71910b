package runtime

import (
	"context"
	"log/slog"

	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// History sequences undoable commands on two stacks.
// Executing a command clears the redo stack; when a maximum depth is set the
// oldest commands are discarded once it is exceeded.
//
// History is not safe for concurrent use; callers serialize access.
type History struct {
	done     []ports.UndoableCommand
	undone   []ports.UndoableCommand
	maxDepth int
	logger   *slog.Logger
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithMaxDepth bounds the undo stack. Zero means unbounded.
func WithMaxDepth(n int) HistoryOption {
	return func(h *History) {
		h.maxDepth = n
	}
}

// WithHistoryLogger sets the logger for history events.
func WithHistoryLogger(logger *slog.Logger) HistoryOption {
	return func(h *History) {
		h.logger = logger
	}
}

// NewHistory creates an empty history.
func NewHistory(opts ...HistoryOption) *History {
	h := &History{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute runs cmd and records it. A command whose Execute fails is not recorded
// and the redo stack is left intact.
func (h *History) Execute(ctx context.Context, cmd ports.UndoableCommand) error {
	if err := cmd.Execute(ctx); err != nil {
		return err
	}
	h.Push(cmd)
	return nil
}

// Push records a command that has already been executed.
func (h *History) Push(cmd ports.UndoableCommand) {
	h.undone = nil
	h.done = append(h.done, cmd)
	if h.maxDepth > 0 && len(h.done) > h.maxDepth {
		dropped := len(h.done) - h.maxDepth
		h.done = append([]ports.UndoableCommand(nil), h.done[dropped:]...)
		h.logger.Debug("history truncated", "dropped", dropped, "depth", h.maxDepth)
	}
}

// Undo reverts the most recent command. On failure the command stays on the
// undo stack so the call can be retried.
func (h *History) Undo(ctx context.Context) error {
	if len(h.done) == 0 {
		return domain.ErrNothingToUndo
	}
	cmd := h.done[len(h.done)-1]
	if err := cmd.Undo(ctx); err != nil {
		return err
	}
	h.done = h.done[:len(h.done)-1]
	h.undone = append(h.undone, cmd)
	return nil
}

// Redo reapplies the most recently undone command.
func (h *History) Redo(ctx context.Context) error {
	if len(h.undone) == 0 {
		return domain.ErrNothingToRedo
	}
	cmd := h.undone[len(h.undone)-1]
	if err := cmd.Redo(ctx); err != nil {
		return err
	}
	h.undone = h.undone[:len(h.undone)-1]
	h.done = append(h.done, cmd)
	return nil
}

// Last returns the command the next Undo would revert, or nil.
func (h *History) Last() ports.UndoableCommand {
	if len(h.done) == 0 {
		return nil
	}
	return h.done[len(h.done)-1]
}

// LastUndone returns the command the next Redo would reapply, or nil.
func (h *History) LastUndone() ports.UndoableCommand {
	if len(h.undone) == 0 {
		return nil
	}
	return h.undone[len(h.undone)-1]
}

// CanUndo reports whether Undo has a command to revert.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether Redo has a command to reapply.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Len returns the depth of the undo and redo stacks.
func (h *History) Len() (undo, redo int) {
	return len(h.done), len(h.undone)
}

// Clear discards every recorded command.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}
