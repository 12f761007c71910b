package domain

import (
	"fmt"
	"reflect"
)

// Specifier tells how a prim spec contributes to the composed prim.
type Specifier string

const (
	SpecifierDef   Specifier = "def"   // Defining opinion
	SpecifierOver  Specifier = "over"  // Sparse override, never defines the prim
	SpecifierClass Specifier = "class" // Abstract definition
)

// Valid reports whether s is a known specifier.
func (s Specifier) Valid() bool {
	switch s {
	case SpecifierDef, SpecifierOver, SpecifierClass:
		return true
	}
	return false
}

// PrimSpec is the scene description authored for one prim in one layer.
// Children are not nested here: they are the specs stored at descendant paths of
// the same layer.
type PrimSpec struct {
	Specifier  Specifier         `json:"specifier" yaml:"specifier" mapstructure:"specifier"`
	TypeName   string            `json:"type_name,omitempty" yaml:"type_name,omitempty" mapstructure:"type_name"`
	Attributes map[string]any    `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// NewPrimSpec creates a spec with the given specifier and type name.
func NewPrimSpec(specifier Specifier, typeName string) *PrimSpec {
	return &PrimSpec{
		Specifier: specifier,
		TypeName:  typeName,
	}
}

// Clone returns a deep copy so that stores never share mutable state with callers.
func (s *PrimSpec) Clone() *PrimSpec {
	if s == nil {
		return nil
	}
	c := &PrimSpec{
		Specifier: s.Specifier,
		TypeName:  s.TypeName,
	}
	if s.Attributes != nil {
		c.Attributes = make(map[string]any, len(s.Attributes))
		for k, v := range s.Attributes {
			c.Attributes[k] = cloneValue(v)
		}
	}
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Equal reports whether two specs hold the same content.
func (s *PrimSpec) Equal(o *PrimSpec) bool {
	return reflect.DeepEqual(s, o)
}

// Validate checks the spec is storable.
func (s *PrimSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("nil prim spec")
	}
	if !s.Specifier.Valid() {
		return fmt.Errorf("unknown specifier %q", s.Specifier)
	}
	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []float64:
		return append([]float64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
