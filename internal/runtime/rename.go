package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

const renameCommandName = "rename"

var _ ports.UndoableCommand = (*RenameCommand)(nil)

// RenameCommand moves a prim and its subtree to a new name under the same
// parent, within the one layer that defines it.
//
// The layer is fixed when the command is built and reused by every later
// redo and undo. A command is not safe for concurrent use.
type RenameCommand struct {
	stage    ports.Stage
	factory  ports.ItemFactory
	notifier ports.Notifier
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	srcPath domain.Path
	dstPath domain.Path
	layer   string

	srcItem *domain.Item
	dstItem *domain.Item
	state   domain.CommandState
}

// Option configures a RenameCommand.
type Option func(*RenameCommand)

// WithLogger sets the logger used for transaction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *RenameCommand) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers command start/end callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *RenameCommand) {
		c.hooks = hooks
	}
}

// NewRenameCommand validates the rename of src to newName and returns a command
// ready to execute. Validation failures are returned as *domain.RenameError and
// leave the stage untouched.
func NewRenameCommand(stage ports.Stage, factory ports.ItemFactory, notifier ports.Notifier, src *domain.Item, newName string, opts ...Option) (*RenameCommand, error) {
	if stage == nil || factory == nil {
		return nil, errors.New("rename command needs a stage and an item factory")
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source item", domain.ErrStaleItem)
	}
	if _, err := stage.Resolve(src.Ref); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(newName); err != nil {
		return nil, err
	}
	if newName == src.Name() {
		return nil, fmt.Errorf("%w: %s is already named %q", domain.ErrInvalidName, src.Path, newName)
	}

	dst, err := src.Path.Parent().AppendChild(newName)
	if err != nil {
		return nil, err
	}

	layer, err := resolveLayer(stage, src.Path)
	if err != nil {
		return nil, err
	}

	c := &RenameCommand{
		stage:    stage,
		factory:  factory,
		notifier: notifier,
		logger:   logging.NewNop(),
		srcPath:  src.Path,
		dstPath:  dst,
		layer:    layer,
		srcItem:  src,
		state:    domain.StateConstructed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute performs the rename. It is the first Redo.
func (c *RenameCommand) Execute(ctx context.Context) error {
	return c.run(ctx, domain.OpExecute)
}

// Redo moves the prim from the source path to the destination path.
func (c *RenameCommand) Redo(ctx context.Context) error {
	return c.run(ctx, domain.OpRedo)
}

// Undo moves the prim back from the destination path to the source path.
func (c *RenameCommand) Undo(ctx context.Context) error {
	return c.run(ctx, domain.OpUndo)
}

// RenamedItem returns the handle minted by the last successful redo, or nil
// while the prim sits at its source path.
func (c *RenameCommand) RenamedItem() *domain.Item {
	return c.dstItem
}

// SourceItem returns the live handle at the source path, or nil after a redo.
func (c *RenameCommand) SourceItem() *domain.Item {
	return c.srcItem
}

// Item returns the handle on the side of the rename the prim is on.
func (c *RenameCommand) Item() *domain.Item {
	if c.state == domain.StateRenamed {
		return c.dstItem
	}
	return c.srcItem
}

// State reports which side of the rename the command believes the prim is on.
func (c *RenameCommand) State() domain.CommandState {
	return c.state
}

// Layer returns the identifier of the layer the command edits.
func (c *RenameCommand) Layer() string {
	return c.layer
}

// Source returns the path the prim is renamed from.
func (c *RenameCommand) Source() domain.Path {
	return c.srcPath
}

// Destination returns the path the prim is renamed to.
func (c *RenameCommand) Destination() domain.Path {
	return c.dstPath
}

func (c *RenameCommand) run(ctx context.Context, op domain.Operation) error {
	from, to := c.srcPath, c.dstPath
	if op == domain.OpUndo {
		from, to = c.dstPath, c.srcPath
	}

	event := &domain.CommandEvent{
		EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventCommandStart},
		Command:     renameCommandName,
		Op:          op,
		Source:      from,
		Destination: to,
		Layer:       c.layer,
	}
	if c.hooks.OnCommandStart != nil {
		c.hooks.OnCommandStart(ctx, event)
	}

	err := c.rename(withPathChange(ctx), op, from, to)

	end := *event
	end.Timestamp = time.Now()
	end.Type = domain.EventCommandEnd
	end.Duration = end.Timestamp.Sub(event.Timestamp)
	end.Err = err
	if c.hooks.OnCommandEnd != nil {
		c.hooks.OnCommandEnd(ctx, &end)
	}

	if err != nil {
		c.logger.WarnContext(ctx, "rename "+string(op)+" failed", "from", from, "to", to, "layer", c.layer, "err", err)
		return err
	}
	c.logger.DebugContext(ctx, "rename "+string(op)+" done", "from", from, "to", to, "layer", c.layer)
	return nil
}

// rename runs one copy-then-remove transaction from one path to the other,
// then mints the successor handle and notifies observers.
func (c *RenameCommand) rename(ctx context.Context, op domain.Operation, from, to domain.Path) error {
	if err := c.stage.CopySpec(ctx, c.layer, from, c.layer, to); err != nil {
		c.logger.WarnContext(ctx, "copy spec failed", "from", from, "to", to, "layer", c.layer, "err", err)
		return &domain.TransactionError{Step: domain.StepCopy, From: from, To: to, Layer: c.layer, Err: err}
	}

	err := c.stage.WithEditTarget(ctx, c.layer, func(ctx context.Context) error {
		if err := c.stage.RemovePrim(ctx, from); err != nil {
			return err
		}
		if op != domain.OpUndo {
			return nil
		}
		// Restoring the source must leave a prim behind. Only stages whose copy
		// can author nothing composable reach this; memory.Stage never does.
		if _, ok := c.stage.PrimAt(to); !ok {
			return c.stage.DefinePrim(ctx, to)
		}
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "remove prim failed", "path", from, "layer", c.layer, "err", err)
		return &domain.TransactionError{Step: domain.StepRemove, From: from, To: to, Layer: c.layer, Err: err}
	}

	item, err := c.factory.SiblingItem(ctx, from, to.Name())
	if err != nil {
		return &domain.TransactionError{Step: domain.StepRebind, From: from, To: to, Layer: c.layer, Err: err}
	}

	if op == domain.OpUndo {
		c.srcItem, c.dstItem = item, nil
		c.state = domain.StateConstructed
	} else {
		c.srcItem, c.dstItem = nil, item
		c.state = domain.StateRenamed
	}

	if c.notifier != nil {
		c.notifier.NotifyRename(ctx, domain.NewRenameEvent(from, item))
	}
	return nil
}
