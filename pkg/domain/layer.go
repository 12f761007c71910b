package domain

import (
	"fmt"
	"sort"
)

// LayerInfo describes one layer of a stage's layer stack.
type LayerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Label returns the display name, falling back to the identifier.
func (l LayerInfo) Label() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.ID
}

// LayerData is the serializable content of a layer: sparse path-keyed prim specs.
type LayerData struct {
	ID          string             `json:"id" yaml:"id" mapstructure:"id"`
	DisplayName string             `json:"display_name,omitempty" yaml:"display_name,omitempty" mapstructure:"display_name"`
	Specs       map[Path]*PrimSpec `json:"specs" yaml:"specs" mapstructure:"specs"`
}

// NewLayerData creates an empty layer.
func NewLayerData(id, displayName string) *LayerData {
	return &LayerData{
		ID:          id,
		DisplayName: displayName,
		Specs:       make(map[Path]*PrimSpec),
	}
}

// Info returns the layer's identity.
func (l *LayerData) Info() LayerInfo {
	return LayerInfo{ID: l.ID, DisplayName: l.DisplayName}
}

// Clone deep-copies the layer.
func (l *LayerData) Clone() *LayerData {
	c := NewLayerData(l.ID, l.DisplayName)
	for p, s := range l.Specs {
		c.Specs[p] = s.Clone()
	}
	return c
}

// Paths returns the authored paths in lexical order.
func (l *LayerData) Paths() []Path {
	paths := make([]Path, 0, len(l.Specs))
	for p := range l.Specs {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Validate checks identifiers, paths and the hierarchy invariant: every spec's
// parent is either the pseudo-root or authored in the same layer.
func (l *LayerData) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("layer id cannot be empty")
	}
	for p, s := range l.Specs {
		if _, err := ParsePath(string(p)); err != nil {
			return fmt.Errorf("layer %s: %w", l.ID, err)
		}
		if p.IsRoot() {
			return fmt.Errorf("layer %s: the pseudo-root cannot hold a spec", l.ID)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("layer %s: %s: %w", l.ID, p, err)
		}
		if parent := p.Parent(); !parent.IsRoot() {
			if _, ok := l.Specs[parent]; !ok {
				return fmt.Errorf("layer %s: %s has no parent spec", l.ID, p)
			}
		}
	}
	return nil
}
