package observability

import (
	"context"
	"log/slog"

	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommandStart: func(ctx context.Context, e *domain.CommandEvent) {
			logger.DebugContext(ctx, "command_start",
				"command", e.Command,
				"op", e.Op,
				"source", e.Source,
				"destination", e.Destination,
			)
		},
		OnCommandEnd: func(ctx context.Context, e *domain.CommandEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "command_end",
					"command", e.Command,
					"op", e.Op,
					"layer", e.Layer,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "command_end",
				"command", e.Command,
				"op", e.Op,
				"layer", e.Layer,
				"duration", e.Duration,
			)
		},
		OnStageChanged: func(ctx context.Context, n *domain.ChangeNotice) {
			logger.DebugContext(ctx, "stage_changed",
				"layer", n.Layer,
				"kind", n.Kind,
				"root", n.Root,
				"paths", len(n.Paths),
			)
		},
	}
}
