package ports

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// Notifier delivers rename notifications. Delivery is fire-and-forget.
type Notifier interface {
	NotifyRename(ctx context.Context, event *domain.RenameEvent)
}
