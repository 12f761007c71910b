package graph

import (
	"fmt"
	"strings"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// PrimNode is one composed prim as drawn on the hierarchy graph.
type PrimNode struct {
	Path     domain.Path
	TypeName string
	// Layers holds the IDs of the layers with an opinion, strongest first.
	Layers []string
	// Defined is false when only overrides exist.
	Defined bool
}

// GraphOverlay marks prims to highlight on the graph.
type GraphOverlay struct {
	// Renamed prims are drawn with the "renamed" class.
	Renamed []domain.Path
	// Selected is drawn with the "selected" class.
	Selected domain.Path
}

// GenerateMermaid produces a Mermaid flowchart of the prim hierarchy.
// It applies semantic styling:
// - Defined in one layer: [Rectangle]
// - Opinions on several layers: [[Subroutine]]
// - Overrides only: [/Parallelogram/]
// Children hang off their parent; top-level prims hang off the pseudo-root.
func GenerateMermaid(nodes []PrimNode, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    root((\"/\"))\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.Path)

		opener, closer := "[", "]"
		switch {
		case !node.Defined:
			opener, closer = "[/", "/]"
		case len(node.Layers) > 1:
			opener, closer = "[[", "]]"
		}

		label := node.Path.Name()
		if node.TypeName != "" {
			label = fmt.Sprintf("%s <br/> %s", label, node.TypeName)
		}
		if len(node.Layers) > 0 {
			label = fmt.Sprintf("%s <br/> %s", label, strings.Join(node.Layers, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		parent := "root"
		if p := node.Path.Parent(); !p.IsRoot() {
			parent = sanitizeMermaidID(p)
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", parent, safeID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef renamed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, p := range overlay.Renamed {
			safeID := sanitizeMermaidID(p)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s renamed;\n", safeID))
			}
		}

		if overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

// sanitizeMermaidID maps a prim path onto a Mermaid node ID.
func sanitizeMermaidID(p domain.Path) string {
	if p.IsRoot() {
		return ""
	}
	return "p" + strings.ReplaceAll(string(p), "/", "__")
}
