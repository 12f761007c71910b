package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommandStart EventType = "command_start"
	EventCommandEnd   EventType = "command_end"
	EventRename       EventType = "rename"
	EventStageChanged EventType = "stage_changed"
)

// Operation names the lifecycle entry point that ran a command.
type Operation string

const (
	OpExecute Operation = "execute"
	OpUndo    Operation = "undo"
	OpRedo    Operation = "redo"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RenameEvent is emitted once per successful rename transaction.
// Item is the freshly minted handle; OldPath is where the prim lived before.
type RenameEvent struct {
	EventBase
	OldPath Path  `json:"old_path"`
	Item    *Item `json:"item"`
}

// NewRenameEvent stamps a rename notification.
func NewRenameEvent(oldPath Path, item *Item) *RenameEvent {
	return &RenameEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: EventRename},
		OldPath:   oldPath,
		Item:      item,
	}
}

// ChangeKind tells what a stage mutation did to a subtree.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// ChangeNotice is published by a stage after each mutation.
type ChangeNotice struct {
	EventBase
	Layer string     `json:"layer"`
	Kind  ChangeKind `json:"kind"`
	Root  Path       `json:"root"`
	Paths []Path     `json:"paths"`
}

// CommandEvent describes one lifecycle call on a command.
type CommandEvent struct {
	EventBase
	Command     string        `json:"command"`
	Op          Operation     `json:"op"`
	Source      Path          `json:"source"`
	Destination Path          `json:"destination"`
	Layer       string        `json:"layer"`
	Duration    time.Duration `json:"duration,omitempty"`
	Err         error         `json:"-"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnCommandStart func(context.Context, *CommandEvent)
	OnCommandEnd   func(context.Context, *CommandEvent)
	OnStageChanged func(context.Context, *ChangeNotice)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommandStart: chain(h.OnCommandStart, other.OnCommandStart),
		OnCommandEnd:   chain(h.OnCommandEnd, other.OnCommandEnd),
		OnStageChanged: chain(h.OnStageChanged, other.OnStageChanged),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
