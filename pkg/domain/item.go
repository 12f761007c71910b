package domain

import "fmt"

// PrimRef is a generation-stamped reference into a stage's prim table.
// A stage bumps the slot generation whenever the prim's specs are removed or the
// prim is recreated, so dereferencing an old ref fails instead of reading
// whatever now lives at the path.
type PrimRef struct {
	Index      int    `json:"index"`
	Generation uint64 `json:"generation"`
}

// Item is the caller-facing handle to a prim. Items are immutable values: when a
// rename invalidates one, a new Item is minted rather than updating the old one.
type Item struct {
	Path Path    `json:"path"`
	Ref  PrimRef `json:"ref"`
}

// Name returns the prim name.
func (i *Item) Name() string {
	return i.Path.Name()
}

func (i *Item) String() string {
	return fmt.Sprintf("%s@%d.%d", i.Path, i.Ref.Index, i.Ref.Generation)
}
