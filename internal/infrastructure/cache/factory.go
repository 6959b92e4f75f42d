package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultDialTimeout = 5 * time.Second

// Factory builds the Redis backed stores on one shared client. When Redis
// is disabled, or unreachable and fallback is allowed, process local
// stores are returned instead.
type Factory struct {
	cfg         config.RedisConfig
	logger      *zap.Logger
	fallback    bool
	dialTimeout time.Duration

	dial    sync.Once
	client  *redis.Client
	dialErr error

	mu      sync.Mutex
	closers []io.Closer
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// local stores. Enabled by default; production turns it off because
// replicas would stop sharing revocations and processed notifications.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) { f.fallback = allow }
}

func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:         cfg,
		logger:      zap.NewNop(),
		fallback:    true,
		dialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client connects on first use. It returns nil without error when Redis
// is disabled.
func (f *Factory) Client(ctx context.Context) (*redis.Client, error) {
	if !f.cfg.Enabled {
		return nil, nil
	}
	f.dial.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:     f.cfg.Addr(),
			Password: f.cfg.Password,
			DB:       f.cfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, f.dialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			f.dialErr = fmt.Errorf("connect to redis at %s: %w", f.cfg.Addr(), err)
			return
		}
		f.client = client
		f.logger.Info("Connected to Redis", zap.String("addr", f.cfg.Addr()), zap.Int("db", f.cfg.DB))
	})
	return f.client, f.dialErr
}

// backend returns the client for what, or nil when the local variant is to
// be used
func (f *Factory) backend(ctx context.Context, what string) (*redis.Client, error) {
	client, err := f.Client(ctx)
	if err == nil {
		return client, nil
	}
	if !f.fallback {
		return nil, fmt.Errorf("redis required for %s: %w", what, err)
	}
	f.logger.Warn("Redis unavailable, keeping "+what+" in process memory", zap.Error(err))
	return nil, nil
}

// IdempotencyStore backs event handler deduplication and PayU notifications
func (f *Factory) IdempotencyStore(ctx context.Context) (shared.IdempotencyStore, error) {
	client, err := f.backend(ctx, "idempotency keys")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return NewInMemoryIdempotencyStore(), nil
	}
	return NewRedisIdempotencyStore(client), nil
}

// ResultsCache caches rendered result table pages
func (f *Factory) ResultsCache(ctx context.Context) (competition.ResultsCache, error) {
	client, err := f.backend(ctx, "results cache")
	if err != nil {
		return nil, err
	}
	if client == nil {
		local := NewInMemoryResultsCache(0, f.logger)
		f.track(local)
		return local, nil
	}
	return NewRedisResultsCache(client, WithCacheLogger(f.logger)), nil
}

// TokenBlacklist holds revoked access tokens
func (f *Factory) TokenBlacklist(ctx context.Context) (auth.TokenBlacklist, error) {
	client, err := f.backend(ctx, "token revocations")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return auth.NewInMemoryTokenBlacklist(), nil
	}
	return auth.NewRedisTokenBlacklist(client), nil
}

func (f *Factory) track(c io.Closer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closers = append(f.closers, c)
}

// Close stops local caches and closes the Redis client
func (f *Factory) Close() error {
	f.mu.Lock()
	closers, client := f.closers, f.client
	f.closers, f.client = nil, nil
	f.mu.Unlock()

	var errs []error
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	if client != nil {
		errs = append(errs, client.Close())
	}
	return errors.Join(errs...)
}
