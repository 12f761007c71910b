package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.LayerStore

	mu      sync.Mutex                 // Global lock for the maps
	locks   map[string]*lockEntry      // Map of active locks
	editors map[string]*mayausd.Editor // Open sessions

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	editorOpts []mayausd.Option
	logger     *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets the options every session editor is opened with.
func WithEditorOptions(opts ...mayausd.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a new Session Manager with the given layer store.
func NewManager(store ports.LayerStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*mayausd.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) editor(sessionID string) (*mayausd.Editor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ed, ok := m.editors[sessionID]
	return ed, ok
}

// Open returns the editor of a session, loading layerIDs (strongest first) from
// the store when the session is not open yet. An open session ignores layerIDs.
func (m *Manager) Open(ctx context.Context, sessionID string, layerIDs []string) (*mayausd.Editor, error) {
	var ed *mayausd.Editor
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if existing, ok := m.editor(sessionID); ok {
			ed = existing
			return nil
		}

		opts := append([]mayausd.Option{mayausd.WithLogger(m.logger.With("session_id", sessionID))}, m.editorOpts...)
		opened, err := mayausd.Open(ctx, m.store, layerIDs, opts...)
		if err != nil {
			return fmt.Errorf("failed to open session %s: %w", sessionID, err)
		}

		m.mu.Lock()
		m.editors[sessionID] = opened
		m.mu.Unlock()

		m.logger.Info("session opened", "session_id", sessionID, "layers", layerIDs)
		ed = opened
		return nil
	})
	return ed, err
}

// Get returns the editor of an open session.
func (m *Manager) Get(sessionID string) (*mayausd.Editor, error) {
	ed, ok := m.editor(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return ed, nil
}

// Save writes the session's layers back to the store.
func (m *Manager) Save(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		ed, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		return ed.Save(ctx, m.store)
	})
}

// Close closes the session's editor without saving.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		ed, ok := m.editors[sessionID]
		delete(m.editors, sessionID)
		m.mu.Unlock()

		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return ed.Close()
	})
}

// List returns the IDs of open sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store returns the underlying layer store.
func (m *Manager) Store() ports.LayerStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
