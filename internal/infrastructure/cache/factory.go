package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Stores bundles the stores built by a Factory; they share one Redis client.
type Stores struct {
	Idempotency shared.IdempotencyStore
	Cache       shared.Cache
	Backend     string

	client *redis.Client
}

// Ping checks the backend. In-memory stores are always reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the stores and the shared client.
func (s *Stores) Close() error {
	errs := []error{s.Idempotency.Close(), s.Cache.Close()}
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	return errors.Join(errs...)
}

// Factory builds Stores from configuration.
type Factory struct {
	redisConfig           config.RedisConfig
	sweepInterval         time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithSweepInterval sets how often in-memory stores drop expired entries
func WithSweepInterval(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.sweepInterval = d
	}
}

// NewFactory creates a Factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		sweepInterval:         defaultSweepInterval,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns Redis-backed stores when Redis is enabled and reachable,
// otherwise in-memory stores.
func (f *Factory) Create(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache and idempotency store")
		return f.inMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis cache and idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Idempotency: NewRedisIdempotencyStore(client, ""),
			Cache:       NewRedisCache(client, "", f.logger.Named("cache")),
			Backend:     BackendRedis,
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Duplicate-submit guards will not be shared across replicas.",
		zap.Error(err),
	)
	return f.inMemory(), nil
}

func (f *Factory) inMemory() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(f.sweepInterval),
		Cache:       NewInMemoryCache(f.sweepInterval),
		Backend:     BackendMemory,
	}
}
