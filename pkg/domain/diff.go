package domain

import "sort"

// LayerDiff represents the changes between two snapshots of the same layer.
// It is designed to be serialized to JSON so clients can show what an edit did.
type LayerDiff struct {
	// LayerID is always present to identify the target.
	LayerID string `json:"layer_id"`

	// Added holds paths authored in the new snapshot only.
	Added []Path `json:"added,omitempty"`

	// Removed holds paths authored in the old snapshot only.
	Removed []Path `json:"removed,omitempty"`

	// Modified holds paths present in both with different content.
	Modified []Path `json:"modified,omitempty"`
}

// DiffLayers calculates the difference between oldLayer and newLayer.
// If oldLayer is nil, every spec of newLayer counts as added (initial load).
// It returns nil when nothing changed.
func DiffLayers(oldLayer, newLayer *LayerData) *LayerDiff {
	if newLayer == nil {
		return nil
	}

	diff := &LayerDiff{LayerID: newLayer.ID}

	var oldSpecs map[Path]*PrimSpec
	if oldLayer != nil {
		oldSpecs = oldLayer.Specs
	}

	for p, spec := range newLayer.Specs {
		prev, exists := oldSpecs[p]
		switch {
		case !exists:
			diff.Added = append(diff.Added, p)
		case !prev.Equal(spec):
			diff.Modified = append(diff.Modified, p)
		}
	}
	for p := range oldSpecs {
		if _, exists := newLayer.Specs[p]; !exists {
			diff.Removed = append(diff.Removed, p)
		}
	}

	if diff.IsEmpty() {
		return nil
	}

	sortPaths(diff.Added)
	sortPaths(diff.Removed)
	sortPaths(diff.Modified)
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *LayerDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

func sortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
}
