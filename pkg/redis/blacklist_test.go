package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestTokenBlacklist_AddAndExpire(t *testing.T) {
	srv, client := newTestClient(t)
	bl := NewTokenBlacklist(client, "test:blacklist:")
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "jti-1", time.Hour))

	found, err := bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, srv.Exists("test:blacklist:jti-1"))

	found, err = bl.Contains(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, found)

	srv.FastForward(2 * time.Hour)
	found, err = bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTokenBlacklist_SkipsExpiredTokens(t *testing.T) {
	srv, client := newTestClient(t)
	bl := NewTokenBlacklist(client, "bl:")

	require.NoError(t, bl.Add(context.Background(), "old", -time.Minute))
	assert.False(t, srv.Exists("bl:old"))
}

func TestClient_GetSetDelete(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	assert.Error(t, client.SetWithTTL(ctx, "k", "v", 0))

	require.NoError(t, client.SetWithTTL(ctx, "k", "v", time.Minute))
	val, ok, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, client.Delete(ctx, "k"))
	_, ok, err = client.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, client.PoolStats(), "total_conns")
}
