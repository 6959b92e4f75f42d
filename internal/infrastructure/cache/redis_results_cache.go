package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultScanBatchSize = 100
	defaultResultsTTL    = 10 * time.Minute
	resultsKeyPrefix     = "results:"
)

// RedisResultsCache implements competition.ResultsCache using Redis
type RedisResultsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisResultsCacheOption is a functional option for configuring the cache
type RedisResultsCacheOption func(*RedisResultsCache)

// WithResultsTTL sets the TTL used when Set is called with zero ttl
func WithResultsTTL(ttl time.Duration) RedisResultsCacheOption {
	return func(c *RedisResultsCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisResultsCacheOption {
	return func(c *RedisResultsCache) {
		c.logger = logger
	}
}

// NewRedisResultsCache uses client without taking ownership of it
func NewRedisResultsCache(client *redis.Client, opts ...RedisResultsCacheOption) *RedisResultsCache {
	c := &RedisResultsCache{
		client: client,
		ttl:    defaultResultsTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func resultsKey(competitionID uuid.UUID, key string) string {
	return resultsKeyPrefix + competitionID.String() + ":" + key
}

// Get returns a cached page
func (c *RedisResultsCache) Get(ctx context.Context, competitionID uuid.UUID, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, resultsKey(competitionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("results cache miss",
			zap.String("competition_id", competitionID.String()),
			zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get results from cache: %w", err)
	}
	return data, true, nil
}

// Set stores a page
func (c *RedisResultsCache) Set(ctx context.Context, competitionID uuid.UUID, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, resultsKey(competitionID, key), data, ttl).Err(); err != nil {
		c.logger.Error("failed to cache results",
			zap.String("competition_id", competitionID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to set results in cache: %w", err)
	}
	return nil
}

// Invalidate removes all pages of the competition. SCAN is used instead of
// KEYS so a large keyspace does not block the server.
func (c *RedisResultsCache) Invalidate(ctx context.Context, competitionID uuid.UUID) error {
	pattern := resultsKeyPrefix + competitionID.String() + ":*"
	var cursor uint64
	var deleted int64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("invalidated results cache",
		zap.String("competition_id", competitionID.String()),
		zap.Int64("deleted", deleted))
	return nil
}

var _ competition.ResultsCache = (*RedisResultsCache)(nil)
