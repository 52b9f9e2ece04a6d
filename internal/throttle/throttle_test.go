package throttle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop_AlwaysAllows(t *testing.T) {
	var l Limiter = Nop{}
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Fail(ctx, "a@b.io"))
	}
	ok, err := l.Allow(ctx, "a@b.io")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisKey_IsCaseInsensitive(t *testing.T) {
	assert.Equal(t, redisKey("A@B.io"), redisKey("a@b.io"))
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, 3, time.Minute)
	key := uuid.NewString() + "@b.io"
	t.Cleanup(func() { _ = l.Reset(ctx, key) })

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "attempt %d", i)
		require.NoError(t, l.Fail(ctx, key))
	}

	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, redisKey(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, l.Reset(ctx, key))
	ok, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}
