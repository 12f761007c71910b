package runtime

import (
	"slices"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// resolveLayer picks the single layer a rename of path may operate on.
// It only reads the stage.
func resolveLayer(stage ports.Stage, path domain.Path) (string, error) {
	defining, ok := stage.DefiningLayer(path)
	if !ok {
		return "", &domain.RenameError{Kind: domain.NoDefiningLayer, Prim: path}
	}

	stack := stage.PrimStack(path)
	if len(stack) == 0 {
		// The defining layer holds an opinion even when the stage does not list it.
		stack = []string{defining}
	}
	if !slices.Contains(stack, stage.EditTarget()) {
		// Point the caller at the strongest layer holding an opinion.
		return "", &domain.RenameError{
			Kind:   domain.WrongEditTarget,
			Prim:   path,
			Layers: labels(stage, stack[:1]),
		}
	}

	if len(stack) > 1 {
		return "", &domain.RenameError{
			Kind:   domain.AmbiguousLayers,
			Prim:   path,
			Layers: labels(stage, stack),
		}
	}

	return defining, nil
}

func labels(stage ports.Stage, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if info, ok := stage.Layer(id); ok {
			out[i] = info.Label()
		}
	}
	return out
}

// CheckRename reports the layer a rename of path would edit, or the
// *domain.RenameError that would reject it, without building a command.
func CheckRename(stage ports.Stage, path domain.Path) (string, error) {
	return resolveLayer(stage, path)
}
