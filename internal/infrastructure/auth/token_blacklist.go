package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes JWTs before they expire. Logout revokes a single
// token by its jti; a password change revokes every token of the user issued
// until then.
type TokenBlacklist interface {
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

func tokenKey(jti string) string   { return "auth:revoked:jti:" + jti }
func userKey(userID string) string { return "auth:revoked:user:" + userID }

// RedisTokenBlacklist shares revocations between replicas. A user
// revocation stores the unix second it happened.
type RedisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, tokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, tokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup revoked token %s: %w", jti, err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens of user %s: %w", userID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	revokedAt, err := b.client.Get(ctx, userKey(userID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup revocation of user %s: %w", userID, err)
	}
	return tokenIssuedAt.Unix() <= revokedAt, nil
}

// InMemoryTokenBlacklist keeps revocations in the process. Used when Redis
// is disabled and in tests.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]revocation
}

type revocation struct {
	at    time.Time
	until time.Time
}

// BlacklistOption configures an InMemoryTokenBlacklist
type BlacklistOption func(*InMemoryTokenBlacklist)

// WithBlacklistClock replaces time.Now
func WithBlacklistClock(now func() time.Time) BlacklistOption {
	return func(b *InMemoryTokenBlacklist) { b.now = now }
}

func NewInMemoryTokenBlacklist(opts ...BlacklistOption) *InMemoryTokenBlacklist {
	b := &InMemoryTokenBlacklist{now: time.Now, entries: make(map[string]revocation)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *InMemoryTokenBlacklist) revoke(key string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.entries[key] = revocation{at: now, until: now.Add(ttl)}
}

// lookup drops the entry once it expired
func (b *InMemoryTokenBlacklist) lookup(key string) (revocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.entries[key]
	if ok && !b.now().Before(r.until) {
		delete(b.entries, key)
		return revocation{}, false
	}
	return r, ok
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.revoke(tokenKey(jti), ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.lookup(tokenKey(jti))
	return ok, nil
}

func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, ttl time.Duration) error {
	b.revoke(userKey(userID), ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	r, ok := b.lookup(userKey(userID))
	return ok && !tokenIssuedAt.After(r.at), nil
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
