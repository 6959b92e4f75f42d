package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryResultsCache implements competition.ResultsCache for single
// instance deployments and tests
type InMemoryResultsCache struct {
	pages   sync.Map // map[string]*cacheEntry[[]byte]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// NewInMemoryResultsCache creates the cache and starts the cleanup loop
func NewInMemoryResultsCache(ttl time.Duration, logger *zap.Logger) *InMemoryResultsCache {
	if ttl == 0 {
		ttl = defaultResultsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InMemoryResultsCache{
		ttl:    ttl,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

// Get returns a cached page
func (c *InMemoryResultsCache) Get(ctx context.Context, competitionID uuid.UUID, key string) ([]byte, bool, error) {
	cacheKey := resultsKey(competitionID, key)
	if value, ok := c.pages.Load(cacheKey); ok {
		entry := value.(*cacheEntry[[]byte])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true, nil
		}
		c.pages.Delete(cacheKey)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false, nil
}

// Set stores a page
func (c *InMemoryResultsCache) Set(ctx context.Context, competitionID uuid.UUID, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	c.pages.Store(resultsKey(competitionID, key), &cacheEntry[[]byte]{
		value:     data,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Invalidate removes all pages of the competition
func (c *InMemoryResultsCache) Invalidate(ctx context.Context, competitionID uuid.UUID) error {
	prefix := resultsKeyPrefix + competitionID.String() + ":"
	c.pages.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.pages.Delete(key)
		}
		return true
	})
	return nil
}

// GetStats returns cache hits and misses
func (c *InMemoryResultsCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of cached pages including expired ones not yet
// cleaned up
func (c *InMemoryResultsCache) Count() int {
	n := 0
	c.pages.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup loop
func (c *InMemoryResultsCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryResultsCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

func (c *InMemoryResultsCache) doCleanup() {
	removed := 0
	c.pages.Range(func(key, value any) bool {
		if value.(*cacheEntry[[]byte]).isExpired() {
			c.pages.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("cleaned up expired results pages", zap.Int("removed", removed))
	}
}

var _ competition.ResultsCache = (*InMemoryResultsCache)(nil)
