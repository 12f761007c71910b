package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func layer(specs map[Path]*PrimSpec) *LayerData {
	l := NewLayerData("root", "root.usda")
	for p, s := range specs {
		l.Specs[p] = s
	}
	return l
}

func TestDiffLayers(t *testing.T) {
	cube := &PrimSpec{Specifier: SpecifierDef, TypeName: "Cube", Attributes: map[string]any{"size": 2.0}}
	bigCube := &PrimSpec{Specifier: SpecifierDef, TypeName: "Cube", Attributes: map[string]any{"size": 4.0}}
	world := &PrimSpec{Specifier: SpecifierDef, TypeName: "Xform"}

	tests := []struct {
		name     string
		old      *LayerData
		new      *LayerData
		wantDiff *LayerDiff // nil means no changes
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  layer(map[Path]*PrimSpec{"/World": world}),
			wantDiff: &LayerDiff{
				LayerID: "root",
				Added:   []Path{"/World"},
			},
		},
		{
			name:     "No Changes",
			old:      layer(map[Path]*PrimSpec{"/World": world, "/World/Cube": cube}),
			new:      layer(map[Path]*PrimSpec{"/World": world.Clone(), "/World/Cube": cube.Clone()}),
			wantDiff: nil,
		},
		{
			name: "Rename Moves Subtree",
			old:  layer(map[Path]*PrimSpec{"/World": world, "/World/Cube": cube}),
			new:  layer(map[Path]*PrimSpec{"/World": world, "/World/Box": cube}),
			wantDiff: &LayerDiff{
				LayerID: "root",
				Added:   []Path{"/World/Box"},
				Removed: []Path{"/World/Cube"},
			},
		},
		{
			name: "Attribute Modified",
			old:  layer(map[Path]*PrimSpec{"/World": world, "/World/Cube": cube}),
			new:  layer(map[Path]*PrimSpec{"/World": world, "/World/Cube": bigCube}),
			wantDiff: &LayerDiff{
				LayerID:  "root",
				Modified: []Path{"/World/Cube"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffLayers(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("DiffLayers() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiffLayers_JSONShape(t *testing.T) {
	d := DiffLayers(nil, layer(map[Path]*PrimSpec{"/A": NewPrimSpec(SpecifierDef, "")}))
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"added":["/A"]`) {
		t.Errorf("expected added paths in JSON, got %s", s)
	}
	if strings.Contains(s, "removed") || strings.Contains(s, "modified") {
		t.Errorf("expected empty slices to be omitted, got %s", s)
	}
}
