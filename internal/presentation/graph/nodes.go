package graph

import (
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// Nodes collects every composed prim of stage, in lexical path order.
// The type name comes from the strongest spec that authors one.
func Nodes(stage ports.StageEditor) []PrimNode {
	prims := stage.Prims()
	nodes := make([]PrimNode, 0, len(prims))
	for _, p := range prims {
		node := PrimNode{Path: p, Layers: stage.PrimStack(p)}
		_, node.Defined = stage.DefiningLayer(p)
		for _, layer := range node.Layers {
			if spec, ok := stage.Spec(layer, p); ok && spec.TypeName != "" {
				node.TypeName = spec.TypeName
				break
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}
