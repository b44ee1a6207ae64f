package cache

import (
	"context"
	"time"
)

// TokenBlacklist is the in-process stand-in for the Redis blacklist. Entries
// are lost on restart and not shared between replicas.
type TokenBlacklist struct {
	cache *Cache
}

func NewTokenBlacklist(c *Cache) *TokenBlacklist {
	return &TokenBlacklist{cache: c}
}

func (b *TokenBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		b.cache.Set(jti, struct{}{}, ttl)
	}
	return nil
}

func (b *TokenBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	_, ok := b.cache.Get(jti)
	return ok, nil
}
