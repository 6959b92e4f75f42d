package cache

import (
	"context"
	"testing"

	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_RedisDisabled(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(config.RedisConfig{Enabled: false})
	defer f.Close()

	client, err := f.Client(ctx)
	require.NoError(t, err)
	assert.Nil(t, client)

	store, err := f.IdempotencyStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	results, err := f.ResultsCache(ctx)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryResultsCache{}, results)

	revoked, err := f.TokenBlacklist(ctx)
	require.NoError(t, err)
	assert.IsType(t, &auth.InMemoryTokenBlacklist{}, revoked)
}

func TestFactory_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to process memory", func(t *testing.T) {
		f := NewFactory(cfg)
		defer f.Close()

		store, err := f.IdempotencyStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)

		revoked, err := f.TokenBlacklist(ctx)
		require.NoError(t, err)
		assert.IsType(t, &auth.InMemoryTokenBlacklist{}, revoked)
	})

	t.Run("required in production", func(t *testing.T) {
		f := NewFactory(cfg, WithInMemoryFallback(false))

		_, err := f.ResultsCache(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required for results cache")

		_, again := f.Client(ctx)
		assert.Error(t, again, "the failed dial is remembered")
	})
}

func TestFactory_CloseTwice(t *testing.T) {
	f := NewFactory(config.RedisConfig{})
	_, err := f.ResultsCache(context.Background())
	require.NoError(t, err)

	assert.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}
