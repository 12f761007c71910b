package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// Store implements ports.LayerStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.LayerData
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with layers.
func NewStore(layers ...*domain.LayerData) *Store {
	s := &Store{
		data: make(map[string]*domain.LayerData),
	}
	for _, l := range layers {
		s.data[l.ID] = l.Clone()
	}
	return s
}

// Save persists the layer in memory.
func (s *Store) Save(ctx context.Context, layer *domain.LayerData) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := layer.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[layer.ID] = copied
	return nil
}

// Load retrieves the layer from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.LayerData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.data[id]
	if !ok {
		return nil, domain.ErrLayerNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer.
	return layer.Clone(), nil
}

// Delete removes the layer.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored layer IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
