package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func newBlacklist() (*auth.InMemoryTokenBlacklist, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	return auth.NewInMemoryTokenBlacklist(auth.WithBlacklistClock(clock.Now)), clock
}

func TestInMemoryTokenBlacklist_RevokesSingleToken(t *testing.T) {
	blacklist, clock := newBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-logout", time.Hour))

	tests := []struct {
		name    string
		jti     string
		advance time.Duration
		want    bool
	}{
		{"revoked", "jti-logout", 0, true},
		{"other token", "jti-other", 0, false},
		{"just before expiry", "jti-logout", 59 * time.Minute, true},
		{"expired", "jti-logout", time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = clock.now.Add(tt.advance)
			revoked, err := blacklist.IsBlacklisted(ctx, tt.jti)
			require.NoError(t, err)
			assert.Equal(t, tt.want, revoked)
		})
	}
}

func TestInMemoryTokenBlacklist_RevokesUserTokens(t *testing.T) {
	blacklist, clock := newBlacklist()
	ctx := context.Background()
	issuedBefore := clock.now.Add(-time.Hour)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", 24*time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated, "tokens issued before the password change")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", clock.now)
	require.NoError(t, err)
	assert.True(t, invalidated, "a token from the same instant is revoked too")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", clock.now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated, "tokens issued afterwards stay valid")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	clock.now = clock.now.Add(24 * time.Hour)
	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated, "the revocation outlives every token only until its ttl")
}
