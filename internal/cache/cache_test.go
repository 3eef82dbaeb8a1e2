package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partsdesk/internal/config"
	"github.com/JonMunkholm/partsdesk/internal/core"
)

var (
	_ core.Cache = Noop{}
	_ core.Cache = (*Redis)(nil)
	_ core.Cache = (*Memory)(nil)
)

func TestNew_NoAddrReturnsNoop(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok, "entry should expire after its ttl")

	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")

	require.NoError(t, m.Delete(ctx, "b", "missing"))
	_, ok, _ = m.Get(ctx, "b")
	assert.False(t, ok)
}

// TestRedis runs against a live server when REDIS_TEST_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	r := NewRedis(client)
	t.Cleanup(func() { _ = r.Close() })

	key := "partsdesk:test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, r.Set(ctx, key, []byte("hello"), time.Minute))

	v, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(v))

	require.NoError(t, r.Delete(ctx, key))
	_, ok, err = r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
