package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server; set REDIS_URL to enable.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	return client
}

func TestPresenceRepository(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	repo := NewPresence(client, time.Minute)

	key := "presence:chat:toko_test"
	t.Cleanup(func() { client.Del(context.Background(), key) })

	require.NoError(t, repo.SetOnline(ctx, "chat", "toko_test", "seller"))

	role, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "seller", role)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, repo.Refresh(ctx, "chat", "toko_test"))
	require.NoError(t, repo.SetOffline(ctx, "chat", "toko_test"))

	_, err = client.Get(ctx, key).Result()
	assert.ErrorIs(t, err, redis.Nil)

	assert.NoError(t, repo.Refresh(ctx, "chat", "toko_test"))
}

func TestPresenceKey(t *testing.T) {
	repo := NewPresence(nil, 0)

	assert.Equal(t, "presence:order:toko_9", repo.getKey("order", "toko_9"))
	assert.Equal(t, DefaultPresenceTTL, repo.ttl)
}
