package mayausd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/internal/runtime"
	"github.com/mhamid3d/maya-usd/pkg/adapters/memory"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/observability"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// Editor is the high-level entry point for renaming prims on a stage.
// It owns the undo history and the rename event bus, and serializes every call.
type Editor struct {
	mu sync.Mutex

	stage     ports.StageEditor
	factory   *runtime.StageItemFactory
	history   *runtime.History
	bus       *observability.Bus
	notifiers []ports.Notifier
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	depth     int

	unsubscribe func()
	closed      bool
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor and its commands.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithNotifier forwards rename events to n in addition to bus subscribers.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Editor) {
		e.notifiers = append(e.notifiers, n)
	}
}

// WithHistoryDepth bounds how many commands can be undone. Zero means unbounded.
func WithHistoryDepth(n int) Option {
	return func(e *Editor) {
		e.depth = n
	}
}

// New wraps stage in an editor.
func New(stage ports.StageEditor, opts ...Option) *Editor {
	e := &Editor{
		stage:   stage,
		factory: runtime.NewItemFactory(stage),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.bus = observability.NewBus(observability.WithBusLogger(e.logger))
	for _, n := range e.notifiers {
		e.bus.Subscribe(n.NotifyRename)
	}
	e.history = runtime.NewHistory(
		runtime.WithMaxDepth(e.depth),
		runtime.WithHistoryLogger(e.logger),
	)
	e.unsubscribe = stage.Subscribe(runtime.NoticeHandler(e.hooks.OnStageChanged))
	return e
}

// Open loads layerIDs from store, strongest first, and returns an editor over
// the stage they compose.
func Open(ctx context.Context, store ports.LayerStore, layerIDs []string, opts ...Option) (*Editor, error) {
	if len(layerIDs) == 0 {
		return nil, errors.New("at least one layer is required")
	}
	layers := make([]*domain.LayerData, 0, len(layerIDs))
	for _, id := range layerIDs {
		l, err := store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load layer %s: %w", id, err)
		}
		layers = append(layers, l)
	}
	stage, err := memory.NewStage(layers...)
	if err != nil {
		return nil, fmt.Errorf("failed to compose stage: %w", err)
	}
	return New(stage, opts...), nil
}

// Save writes every layer of the stack to store.
func (e *Editor) Save(ctx context.Context, store ports.LayerStore) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, info := range e.stage.LayerStack() {
		data, err := e.stage.Export(info.ID)
		if err != nil {
			return err
		}
		if err := store.Save(ctx, data); err != nil {
			return fmt.Errorf("failed to save layer %s: %w", info.ID, err)
		}
	}
	return nil
}

// Stage returns the underlying stage.
func (e *Editor) Stage() ports.StageEditor {
	return e.stage
}

// Item returns a handle to the prim at path.
func (e *Editor) Item(ctx context.Context, path domain.Path) (*domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.factory.Item(ctx, path)
}

// Rename renames the prim behind item to newName and records the command for
// undo. It returns the handle to the renamed prim; item is stale afterwards.
//
// Precondition failures are *domain.RenameError values; transaction failures
// are *domain.TransactionError values and leave the history untouched.
func (e *Editor) Rename(ctx context.Context, item *domain.Item, newName string) (*domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errEditorClosed
	}

	cmd, err := runtime.NewRenameCommand(e.stage, e.factory, e.bus, item, newName,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	if err != nil {
		return nil, err
	}
	if err := e.history.Execute(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd.RenamedItem(), nil
}

// CheckRename reports the layer a rename of the prim at path would edit, or
// the *domain.RenameError that would reject it. Nothing is mutated.
func (e *Editor) CheckRename(path domain.Path) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return runtime.CheckRename(e.stage, path)
}

// RenamePath is Rename for the prim currently at path.
func (e *Editor) RenamePath(ctx context.Context, path domain.Path, newName string) (*domain.Item, error) {
	item, err := e.Item(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.Rename(ctx, item, newName)
}

// RenameOp names one prim to rename in a batch.
type RenameOp struct {
	Path domain.Path
	Name string
}

// RenameAll renames several prims as one undoable step. Every rename is
// validated against the stage as it is before the batch; if any is rejected
// or fails, nothing is applied and nothing is recorded. It returns the
// handles to the renamed prims in the order of ops.
func (e *Editor) RenameAll(ctx context.Context, ops []RenameOp) ([]*domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errEditorClosed
	}
	if len(ops) == 0 {
		return nil, errEmptyBatch
	}

	batch := make(runtime.Batch, 0, len(ops))
	for _, op := range ops {
		item, err := e.factory.Item(ctx, op.Path)
		if err != nil {
			return nil, err
		}
		cmd, err := runtime.NewRenameCommand(e.stage, e.factory, e.bus, item, op.Name,
			runtime.WithLogger(e.logger),
			runtime.WithLifecycleHooks(e.hooks),
		)
		if err != nil {
			return nil, err
		}
		batch = append(batch, cmd)
	}
	if err := e.history.Execute(ctx, batch); err != nil {
		return nil, err
	}
	return batch.Items(), nil
}

// Undo reverts the most recent history entry and returns the handles to the
// prims it moved back, now at their original paths.
func (e *Editor) Undo(ctx context.Context) ([]*domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errEditorClosed
	}
	if err := e.history.Undo(ctx); err != nil {
		return nil, err
	}
	return runtime.Items(e.history.LastUndone()), nil
}

// Redo reapplies the most recently undone entry and returns the handles to
// the renamed prims.
func (e *Editor) Redo(ctx context.Context) ([]*domain.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errEditorClosed
	}
	if err := e.history.Redo(ctx); err != nil {
		return nil, err
	}
	return runtime.Items(e.history.Last()), nil
}

// CanUndo reports whether there is a rename to undo.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether there is a rename to redo.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// SetEditTarget retargets edits to layer.
func (e *Editor) SetEditTarget(layer string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage.SetEditTarget(layer)
}

// Subscribe registers fn for rename events and returns a function removing it.
// Handlers run while the editor is busy and must not call back into it.
func (e *Editor) Subscribe(fn observability.RenameHandler) func() {
	return e.bus.Subscribe(fn)
}

// Close detaches the editor from its stage and drops the history.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.unsubscribe()
	e.history.Clear()
	return nil
}

var (
	errEditorClosed = errors.New("editor is closed")
	errEmptyBatch   = errors.New("no renames given")
)
