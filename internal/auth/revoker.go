package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"budget/internal/cache"
)

// Revoker records logged-out session ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

const revokedPrefix = "budget:revoked:"

// RedisRevoker shares revocations between server instances.
type RedisRevoker struct {
	client redis.Cmdable
}

func NewRedisRevoker(client redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedPrefix+id, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session: %w", err)
	}
	return n > 0, nil
}

// MemoryRevoker keeps revocations in an in-process cache. It is the fallback
// when Redis is not configured; revocations do not survive restarts. The cache
// must not drop an entry before its ttl, or a logged-out session comes back.
type MemoryRevoker struct {
	cache cache.Cache[struct{}]
}

func NewMemoryRevoker(c cache.Cache[struct{}]) *MemoryRevoker {
	return &MemoryRevoker{cache: c}
}

func (m *MemoryRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.cache.SetFor(id, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.cache.Get(id)
	return ok, nil
}
