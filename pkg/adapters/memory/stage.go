package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

var _ ports.StageEditor = (*Stage)(nil)

// primSlot is one entry of the stage's prim table. Items point at slots by index
// and generation; the generation moves forward every time the prim's specs are
// removed or the prim comes back after being removed.
type primSlot struct {
	path       domain.Path
	generation uint64
	live       bool
}

type listenerEntry struct {
	id int
	fn ports.ChangeListener
}

// Stage implements ports.Stage in memory.
// Safe for concurrent use; listeners are always called without the lock held.
type Stage struct {
	mu         sync.RWMutex
	layers     []*domain.LayerData // strongest first
	byID       map[string]*domain.LayerData
	editTarget string

	slots []primSlot
	index map[domain.Path]int

	listeners    []listenerEntry
	nextListener int
}

// NewStage assembles a stage from layers given strongest first.
// The layers are copied; the edit target starts on the strongest layer.
func NewStage(layers ...*domain.LayerData) (*Stage, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("stage needs at least one layer")
	}

	s := &Stage{
		byID:  make(map[string]*domain.LayerData, len(layers)),
		index: make(map[domain.Path]int),
	}
	for _, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate layer %s in stack", l.ID)
		}
		c := l.Clone()
		s.layers = append(s.layers, c)
		s.byID[c.ID] = c
	}
	s.editTarget = s.layers[0].ID

	for _, l := range s.layers {
		for _, p := range l.Paths() {
			s.register(p)
		}
	}
	return s, nil
}

// LayerStack returns the layers ordered strongest first.
func (s *Stage) LayerStack() []domain.LayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.LayerInfo, len(s.layers))
	for i, l := range s.layers {
		infos[i] = l.Info()
	}
	return infos
}

// Layer returns the identity of a layer in the stack.
func (s *Stage) Layer(id string) (domain.LayerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byID[id]
	if !ok {
		return domain.LayerInfo{}, false
	}
	return l.Info(), true
}

// EditTarget returns the layer receiving edits.
func (s *Stage) EditTarget() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editTarget
}

// SetEditTarget retargets edits to layer.
func (s *Stage) SetEditTarget(layer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[layer]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, layer)
	}
	s.editTarget = layer
	return nil
}

// WithEditTarget runs fn with the edit target pinned to layer.
func (s *Stage) WithEditTarget(ctx context.Context, layer string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if _, ok := s.byID[layer]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, layer)
	}
	prev := s.editTarget
	s.editTarget = layer
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.editTarget = prev
		s.mu.Unlock()
	}()

	return fn(ctx)
}

// PrimStack returns every layer with a spec at path, strongest first.
func (s *Stage) PrimStack(path domain.Path) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, l := range s.layers {
		if _, ok := l.Specs[path]; ok {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// DefiningLayer returns the strongest layer whose spec at path is a def.
func (s *Stage) DefiningLayer(path domain.Path) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layers {
		if spec, ok := l.Specs[path]; ok && spec.Specifier == domain.SpecifierDef {
			return l.ID, true
		}
	}
	return "", false
}

// Spec returns a copy of the spec a layer authors at path.
func (s *Stage) Spec(layer string, path domain.Path) (*domain.PrimSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byID[layer]
	if !ok {
		return nil, false
	}
	spec, ok := l.Specs[path]
	if !ok {
		return nil, false
	}
	return spec.Clone(), true
}

// Prims returns the paths of every composed prim in lexical order.
func (s *Stage) Prims() []domain.Path {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []domain.Path
	for _, slot := range s.slots {
		if slot.live {
			paths = append(paths, slot.path)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Export returns a copy of a layer's content.
func (s *Stage) Export(layer string) (*domain.LayerData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byID[layer]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, layer)
	}
	return l.Clone(), nil
}

// PrimAt returns a reference to the composed prim at path.
func (s *Stage) PrimAt(path domain.Path) (domain.PrimRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[path]
	if !ok || !s.slots[i].live {
		return domain.PrimRef{}, false
	}
	return domain.PrimRef{Index: i, Generation: s.slots[i].generation}, true
}

// Resolve dereferences ref, failing for removed or recreated prims.
func (s *Stage) Resolve(ref domain.PrimRef) (domain.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ref.Index < 0 || ref.Index >= len(s.slots) {
		return "", fmt.Errorf("%w: unknown ref %d", domain.ErrStaleItem, ref.Index)
	}
	slot := s.slots[ref.Index]
	if !slot.live || slot.generation != ref.Generation {
		return "", fmt.Errorf("%w: %s", domain.ErrStaleItem, slot.path)
	}
	return slot.path, nil
}

// AddSpec authors spec at path in layer, creating "over" ancestors as needed.
// An existing spec at path is replaced.
func (s *Stage) AddSpec(ctx context.Context, layer string, path domain.Path, spec *domain.PrimSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot author the pseudo-root", domain.ErrInvalidPath)
	}

	s.mu.Lock()
	l, ok := s.byID[layer]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, layer)
	}
	_, existed := l.Specs[path]
	added := s.createAncestors(l, path)
	l.Specs[path] = spec.Clone()
	kind := domain.ChangeModified
	if !existed {
		added = append(added, path)
		kind = domain.ChangeAdded
	}
	for _, p := range added {
		s.register(p)
	}
	s.mu.Unlock()

	paths := added
	if existed {
		paths = []domain.Path{path}
	}
	s.emit(ctx, newNotice(layer, kind, path, paths))
	return nil
}

// CopySpec copies a spec subtree between (layer, path) locations.
// It fails without side effects when the source is missing, the destination is
// occupied, or the destination parent is not authored in the destination layer.
func (s *Stage) CopySpec(ctx context.Context, srcLayer string, srcPath domain.Path, dstLayer string, dstPath domain.Path) error {
	s.mu.Lock()

	src, ok := s.byID[srcLayer]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, srcLayer)
	}
	dst, ok := s.byID[dstLayer]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, dstLayer)
	}
	if _, ok := src.Specs[srcPath]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", domain.ErrPrimNotFound, srcPath, srcLayer)
	}
	if dstPath.IsRoot() || (srcLayer == dstLayer && dstPath.HasPrefix(srcPath)) {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot copy %s onto %s", domain.ErrInvalidPath, srcPath, dstPath)
	}
	if parent := dstPath.Parent(); !parent.IsRoot() {
		if _, ok := dst.Specs[parent]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: parent %s in %s", domain.ErrPrimNotFound, parent, dstLayer)
		}
	}

	subtree := subtreePaths(src, srcPath)
	for _, p := range subtree {
		if _, taken := dst.Specs[p.ReplacePrefix(srcPath, dstPath)]; taken {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s in %s", domain.ErrPrimExists, p.ReplacePrefix(srcPath, dstPath), dstLayer)
		}
	}

	added := make([]domain.Path, 0, len(subtree))
	for _, p := range subtree {
		target := p.ReplacePrefix(srcPath, dstPath)
		dst.Specs[target] = src.Specs[p].Clone()
		added = append(added, target)
	}
	for _, p := range added {
		s.register(p)
	}
	s.mu.Unlock()

	s.emit(ctx, newNotice(dstLayer, domain.ChangeAdded, dstPath, added))
	return nil
}

// RemovePrim removes the spec subtree at path from the edit target.
func (s *Stage) RemovePrim(ctx context.Context, path domain.Path) error {
	s.mu.Lock()

	l := s.byID[s.editTarget]
	if _, ok := l.Specs[path]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s in %s", domain.ErrPrimNotFound, path, l.ID)
	}

	removed := subtreePaths(l, path)
	for _, p := range removed {
		delete(l.Specs, p)
	}
	for _, p := range removed {
		s.invalidate(p)
	}
	layer := l.ID
	s.mu.Unlock()

	s.emit(ctx, newNotice(layer, domain.ChangeRemoved, path, removed))
	return nil
}

// DefinePrim authors a def spec at path in the edit target, creating "over"
// ancestors as needed. An existing spec is turned into a def.
func (s *Stage) DefinePrim(ctx context.Context, path domain.Path) error {
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot define the pseudo-root", domain.ErrInvalidPath)
	}

	s.mu.Lock()
	l := s.byID[s.editTarget]
	added := s.createAncestors(l, path)
	kind := domain.ChangeModified
	if spec, ok := l.Specs[path]; ok {
		spec.Specifier = domain.SpecifierDef
	} else {
		l.Specs[path] = domain.NewPrimSpec(domain.SpecifierDef, "")
		added = append(added, path)
		kind = domain.ChangeAdded
	}
	for _, p := range added {
		s.register(p)
	}
	layer := l.ID
	s.mu.Unlock()

	paths := added
	if kind == domain.ChangeModified {
		paths = []domain.Path{path}
	}
	s.emit(ctx, newNotice(layer, kind, path, paths))
	return nil
}

// Subscribe registers a change listener.
func (s *Stage) Subscribe(fn ports.ChangeListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Stage) emit(ctx context.Context, notice *domain.ChangeNotice) {
	s.mu.RLock()
	listeners := make([]ports.ChangeListener, len(s.listeners))
	for i, e := range s.listeners {
		listeners[i] = e.fn
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, notice)
	}
}

// createAncestors authors "over" specs for missing ancestors of path.
// Callers hold the write lock.
func (s *Stage) createAncestors(l *domain.LayerData, path domain.Path) []domain.Path {
	var missing []domain.Path
	for p := path.Parent(); !p.IsRoot(); p = p.Parent() {
		if _, ok := l.Specs[p]; ok {
			break
		}
		missing = append(missing, p)
	}
	// Parents first.
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	for _, p := range missing {
		l.Specs[p] = domain.NewPrimSpec(domain.SpecifierOver, "")
	}
	return missing
}

// register makes sure a live slot exists for path. A dead slot is revived
// under a new generation. Callers hold the write lock.
func (s *Stage) register(path domain.Path) {
	i, ok := s.index[path]
	if !ok {
		s.index[path] = len(s.slots)
		s.slots = append(s.slots, primSlot{path: path, generation: 1, live: true})
		return
	}
	if !s.slots[i].live {
		s.slots[i].generation++
		s.slots[i].live = true
	}
}

// invalidate retires every outstanding ref to path. The slot stays live when
// another layer still holds an opinion there. Callers hold the write lock.
func (s *Stage) invalidate(path domain.Path) {
	i, ok := s.index[path]
	if !ok {
		return
	}
	s.slots[i].generation++
	s.slots[i].live = false
	for _, l := range s.layers {
		if _, ok := l.Specs[path]; ok {
			s.slots[i].live = true
			break
		}
	}
}

func subtreePaths(l *domain.LayerData, root domain.Path) []domain.Path {
	var paths []domain.Path
	for p := range l.Specs {
		if p.HasPrefix(root) {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

func newNotice(layer string, kind domain.ChangeKind, root domain.Path, paths []domain.Path) *domain.ChangeNotice {
	return &domain.ChangeNotice{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageChanged},
		Layer:     layer,
		Kind:      kind,
		Root:      root,
		Paths:     paths,
	}
}
