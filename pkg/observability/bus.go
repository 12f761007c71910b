package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

var _ ports.Notifier = (*Bus)(nil)

// RenameHandler receives rename events.
type RenameHandler func(ctx context.Context, event *domain.RenameEvent)

type subscriber struct {
	id int
	fn RenameHandler
}

// Bus is a ports.Notifier that fans rename events out to subscribers.
// Handlers run synchronously, in subscription order, without the bus lock held.
// A handler that panics does not stop delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID int
	logger *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger for delivery traces.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus creates a bus with no subscribers.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn RenameHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// NotifyRename delivers event to every subscriber.
func (b *Bus) NotifyRename(ctx context.Context, event *domain.RenameEvent) {
	b.mu.RLock()
	handlers := make([]RenameHandler, len(b.subs))
	for i, s := range b.subs {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	b.logger.DebugContext(ctx, "rename event", "old_path", event.OldPath, "new_path", event.Item.Path, "subscribers", len(handlers))
	for _, fn := range handlers {
		b.deliver(ctx, fn, event)
	}
}

// deliver runs one handler. A panicking handler is logged and skipped so the
// rename that raised the event still completes.
func (b *Bus) deliver(ctx context.Context, fn RenameHandler, event *domain.RenameEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WarnContext(ctx, "rename handler panicked", "old_path", event.OldPath, "panic", r)
		}
	}()
	fn(ctx, event)
}
