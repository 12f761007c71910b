package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mhamid3d/maya-usd/internal/presentation/graph"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// Inspector is what StageMarkdown reads: the stage and the rename preflight.
type Inspector interface {
	Stage() ports.StageEditor
	CheckRename(path domain.Path) (string, error)
}

// StageMarkdown describes the layer stack and every prim, with whether the prim
// can be renamed under the current edit target.
func StageMarkdown(in Inspector) string {
	stage := in.Stage()

	var sb strings.Builder
	sb.WriteString("# Stage\n\n")
	sb.WriteString("| # | Layer | File | |\n|---|---|---|---|\n")
	for i, info := range stage.LayerStack() {
		marker := ""
		if info.ID == stage.EditTarget() {
			marker = "**edit target**"
		}
		fmt.Fprintf(&sb, "| %d | `%s` | %s | %s |\n", i, info.ID, info.DisplayName, marker)
	}

	sb.WriteString("\n## Prims\n\n")
	sb.WriteString("| Path | Type | Opinions | Rename |\n|---|---|---|---|\n")
	for _, node := range graph.Nodes(stage) {
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n",
			node.Path, node.TypeName, strings.Join(node.Layers, ", "), renameStatus(in, node.Path))
	}
	return sb.String()
}

func renameStatus(in Inspector, path domain.Path) string {
	layer, err := in.CheckRename(path)
	if err == nil {
		return "yes, in `" + layer + "`"
	}
	var renameErr *domain.RenameError
	if !errors.As(err, &renameErr) {
		return "no"
	}
	switch renameErr.Kind {
	case domain.WrongEditTarget:
		return "retarget to " + strings.Join(renameErr.Layers, ", ")
	case domain.AmbiguousLayers:
		return "no, opinions in " + strings.Join(renameErr.Layers, ", ")
	}
	return "no, not defined"
}
