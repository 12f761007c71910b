package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrLayerNotFound is returned when a layer ID cannot be found in a stage or store.
var ErrLayerNotFound = errors.New("layer not found")

// ErrPrimNotFound is returned when no spec exists at a path.
var ErrPrimNotFound = errors.New("prim not found")

// ErrPrimExists is returned when a spec already occupies a destination path.
var ErrPrimExists = errors.New("prim already exists")

// ErrStaleItem is returned when an Item refers to a prim that has since been
// removed or recreated.
var ErrStaleItem = errors.New("stale item")

// ErrInvalidPath and ErrInvalidName report malformed paths and path components.
var (
	ErrInvalidPath = errors.New("invalid path")
	ErrInvalidName = errors.New("invalid name")
)

// Rename preconditions. Match them with errors.Is against a *RenameError.
var (
	ErrNoDefiningLayer = errors.New("no defining layer")
	ErrWrongEditTarget = errors.New("wrong edit target")
	ErrAmbiguousLayers = errors.New("ambiguous layers")
)

// History errors.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// RenameErrorKind tags the precondition a rename failed.
type RenameErrorKind int

const (
	NoDefiningLayer RenameErrorKind = iota + 1
	WrongEditTarget
	AmbiguousLayers
)

func (k RenameErrorKind) String() string {
	switch k {
	case NoDefiningLayer:
		return "no_defining_layer"
	case WrongEditTarget:
		return "wrong_edit_target"
	case AmbiguousLayers:
		return "ambiguous_layers"
	}
	return "unknown"
}

// RenameError is returned by the rename command constructor when the rename is
// not well defined against the layer stack. Layers holds the display names of
// the implicated layers: the layer to retarget to for WrongEditTarget, every
// layer with an opinion for AmbiguousLayers.
type RenameError struct {
	Kind   RenameErrorKind
	Prim   Path
	Layers []string
}

func (e *RenameError) Error() string {
	name := e.Prim.Name()
	switch e.Kind {
	case NoDefiningLayer:
		return fmt.Sprintf("no prim found at %s", e.Prim)
	case WrongEditTarget:
		target := ""
		if len(e.Layers) > 0 {
			target = e.Layers[0]
		}
		return fmt.Sprintf("cannot rename [%s] defined on another layer: set [%s] as the target layer to proceed", name, target)
	case AmbiguousLayers:
		quoted := make([]string, len(e.Layers))
		for i, l := range e.Layers {
			quoted[i] = "[" + l + "]"
		}
		return fmt.Sprintf("cannot rename [%s] with definitions or opinions on other layers: opinions exist in %s", name, strings.Join(quoted, ","))
	}
	return fmt.Sprintf("cannot rename %s", e.Prim)
}

// Is maps the kind onto its sentinel.
func (e *RenameError) Is(target error) bool {
	switch e.Kind {
	case NoDefiningLayer:
		return target == ErrNoDefiningLayer
	case WrongEditTarget:
		return target == ErrWrongEditTarget
	case AmbiguousLayers:
		return target == ErrAmbiguousLayers
	}
	return false
}

// TransactionStep names the step of a rename transaction that failed.
type TransactionStep string

const (
	StepCopy   TransactionStep = "copy"
	StepRemove TransactionStep = "remove"
	StepRebind TransactionStep = "rebind"
)

// TransactionError is returned by a rename redo or undo that could not complete.
// A failed StepCopy leaves the store untouched. A failed StepRemove leaves both
// copies in place; it is reported, not rolled back.
type TransactionError struct {
	Step  TransactionStep
	From  Path
	To    Path
	Layer string
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("rename %s -> %s in %s: %s failed: %v", e.From, e.To, e.Layer, e.Step, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
