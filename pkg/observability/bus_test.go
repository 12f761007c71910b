package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestBus_FanOut(t *testing.T) {
	bus := observability.NewBus()
	event := domain.NewRenameEvent("/A/B", &domain.Item{Path: "/A/C"})

	var first, second []domain.Path
	unsubscribe := bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {
		first = append(first, e.OldPath)
	})
	bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {
		second = append(second, e.Item.Path)
	})

	bus.NotifyRename(context.Background(), event)
	assert.Equal(t, []domain.Path{"/A/B"}, first)
	assert.Equal(t, []domain.Path{"/A/C"}, second)

	unsubscribe()
	bus.NotifyRename(context.Background(), event)
	assert.Len(t, first, 1, "unsubscribed handlers are not called")
	assert.Len(t, second, 2)
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	bus := observability.NewBus()
	calls := 0
	bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {
		calls++
		bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {})
	})

	assert.NotPanics(t, func() {
		bus.NotifyRename(context.Background(), domain.NewRenameEvent("/A", &domain.Item{Path: "/B"}))
	})
	assert.Equal(t, 1, calls)
}

func TestBus_PanickingHandlerIsContained(t *testing.T) {
	var buf bytes.Buffer
	bus := observability.NewBus(observability.WithBusLogger(logging.NewJSON(&buf, slog.LevelWarn)))

	var delivered []domain.Path
	bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {
		panic("handler bug")
	})
	bus.Subscribe(func(ctx context.Context, e *domain.RenameEvent) {
		delivered = append(delivered, e.Item.Path)
	})

	assert.NotPanics(t, func() {
		bus.NotifyRename(context.Background(), domain.NewRenameEvent("/A/B", &domain.Item{Path: "/A/C"}))
	})
	assert.Equal(t, []domain.Path{"/A/C"}, delivered)
	assert.Contains(t, buf.String(), "rename handler panicked")
	assert.Contains(t, buf.String(), "handler bug")
}
