// Package cli builds the stores, loggers and editors behind the usdrename commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/adapters/file"
	loamAdapter "github.com/mhamid3d/maya-usd/pkg/adapters/loam"
	"github.com/mhamid3d/maya-usd/pkg/adapters/memory"
	redisAdapter "github.com/mhamid3d/maya-usd/pkg/adapters/redis"
	"github.com/mhamid3d/maya-usd/pkg/observability"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Backend is the configured layer store, plus a distributed locker when the
// store is shared.
type Backend struct {
	Store  ports.LayerStore
	Locker ports.DistributedLocker

	close func() error
}

// Close releases the store's connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// NewBackend opens the store selected by cfg.
func NewBackend(cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case config.BackendFile:
		return &Backend{Store: file.New(cfg.Path)}, nil

	case config.BackendLoam:
		store, err := loamAdapter.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store}, nil

	case config.BackendRedis:
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		opts := []redisAdapter.Option{redisAdapter.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		return &Backend{
			Store:  redisAdapter.NewFromClient(client, opts...),
			Locker: redisAdapter.NewLocker(client, cfg.Redis.Prefix),
			close:  client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(w, level)
	}
	return logging.New(level)
}

// EditorOptions returns the editor options every command shares: the logger,
// a lifecycle log, and the configured history depth.
func EditorOptions(cfg *config.Config, logger *slog.Logger) []mayausd.Option {
	return []mayausd.Option{
		mayausd.WithLogger(logger),
		mayausd.WithLifecycleHooks(observability.LogHooks(logger)),
		mayausd.WithHistoryDepth(cfg.Session.HistoryDepth),
	}
}

// OpenEditor loads cfg.Layers from store and selects cfg.EditTarget.
func OpenEditor(ctx context.Context, cfg *config.Config, store ports.LayerStore, opts ...mayausd.Option) (*mayausd.Editor, error) {
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("no layers configured: pass --layers or set layers in %s", config.DefaultFile)
	}

	ed, err := mayausd.Open(ctx, store, cfg.Layers, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.EditTarget != "" {
		if err := ed.SetEditTarget(cfg.EditTarget); err != nil {
			_ = ed.Close()
			return nil, err
		}
	}
	return ed, nil
}

// ImportLayers copies every layer of src into dst and returns their IDs.
func ImportLayers(ctx context.Context, src, dst ports.LayerStore) ([]string, error) {
	ids, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		layer, err := src.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := dst.Save(ctx, layer); err != nil {
			return nil, fmt.Errorf("failed to import layer %s: %w", id, err)
		}
	}
	return ids, nil
}
