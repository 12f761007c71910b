package observability

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ ports.Notifier = (*Metrics)(nil)

// Metrics holds the Prometheus collectors for rename commands.
type Metrics struct {
	commands     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	renames      prometheus.Counter
	stageChanges *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usdrename_commands_total",
			Help: "Command lifecycle calls by operation and result",
		}, []string{"command", "op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usdrename_command_duration_seconds",
			Help:    "Duration of command lifecycle calls",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command", "op"}),
		renames: factory.NewCounter(prometheus.CounterOpts{
			Name: "usdrename_rename_events_total",
			Help: "Rename notifications delivered to observers",
		}),
		stageChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usdrename_stage_changes_total",
			Help: "Stage change notices outside rename transactions, by kind",
		}, []string{"kind"}),
	}
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommandEnd: func(ctx context.Context, e *domain.CommandEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.commands.WithLabelValues(e.Command, string(e.Op), result).Inc()
			m.duration.WithLabelValues(e.Command, string(e.Op)).Observe(e.Duration.Seconds())
		},
		OnStageChanged: func(ctx context.Context, n *domain.ChangeNotice) {
			m.stageChanges.WithLabelValues(string(n.Kind)).Inc()
		},
	}
}

// NotifyRename counts a delivered rename event.
func (m *Metrics) NotifyRename(ctx context.Context, event *domain.RenameEvent) {
	m.renames.Inc()
}
