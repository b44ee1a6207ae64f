package redis

import (
	"context"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/logger"
)

// TokenBlacklist keeps revoked token ids in Redis until the token would have
// expired anyway.
type TokenBlacklist struct {
	client *Client
	prefix string
}

func NewTokenBlacklist(client *Client, prefix string) *TokenBlacklist {
	return &TokenBlacklist{client: client, prefix: prefix}
}

// Add keeps jti for ttl. A non-positive ttl is a no-op.
func (b *TokenBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.SetWithTTL(ctx, b.prefix+jti, "1", ttl); err != nil {
		return err
	}
	logger.DebugWithContext(ctx, "Token blacklisted").
		String("jti", jti).
		Duration(ttl).
		Log()
	return nil
}

func (b *TokenBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	return b.client.Exists(ctx, b.prefix+jti)
}
