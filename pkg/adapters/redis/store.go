package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

var (
	_ ports.LayerStore   = (*Store)(nil)
	_ ports.LayerDeleter = (*Store)(nil)
)

// DefaultPrefix namespaces layer keys.
const DefaultPrefix = "usdrename:layer:"

// noExpiry is the index score of layers saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.LayerStore using Redis.
// Layers are JSON documents; a sorted set indexes them by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for layers.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for layers.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// validateID keeps layer keys clear of the index and lock keys under the prefix.
func validateID(id string) error {
	if id == "" || id == "index" || strings.Contains(id, ":") {
		return fmt.Errorf("invalid layer id %q", id)
	}
	return nil
}

// Save persists the layer to Redis.
func (s *Store) Save(ctx context.Context, layer *domain.LayerData) error {
	if err := validateID(layer.ID); err != nil {
		return err
	}
	data, err := json.Marshal(layer)
	if err != nil {
		return fmt.Errorf("failed to marshal layer: %w", err)
	}

	pipe := s.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration)
	pipe.Set(ctx, s.key(layer.ID), data, s.ttl)

	// 2. Add to Index (ZSET), scored by expiry
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: layer.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the layer from Redis.
func (s *Store) Load(ctx context.Context, id string) (*domain.LayerData, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var layer domain.LayerData
	if err := json.Unmarshal(val, &layer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layer: %w", err)
	}
	if layer.Specs == nil {
		layer.Specs = make(map[domain.Path]*domain.PrimSpec)
	}
	return &layer, nil
}

// Delete removes the layer.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored layers, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired layers: %w", err)
	}

	layers, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	return layers, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
