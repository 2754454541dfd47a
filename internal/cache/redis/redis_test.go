package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cuongbtq/swayam-be/internal/cache"
	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLiveCache connects to SWAYAM_TEST_REDIS_ADDR (default localhost:6379)
// and skips the test when nothing answers there.
func newLiveCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("SWAYAM_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	c := New(cache.Options{
		RedisURL:   addr,
		KeyPrefix:  "swayam-test:" + uuid.NewString() + ":",
		DefaultTTL: time.Minute,
	})
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := newLiveCache(t)
	ctx := context.Background()

	t.Run("string", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "greeting", "namaste", 0))

		var got string
		require.NoError(t, c.Get(ctx, "greeting", &got))
		assert.Equal(t, "namaste", got)

		require.NoError(t, c.Delete(ctx, "greeting"))
		assert.ErrorIs(t, c.Get(ctx, "greeting", &got), cache.ErrNotFound)
	})

	t.Run("impact stats", func(t *testing.T) {
		stats := domain.ImpactStats{
			TotalWorkers:      12,
			TotalEmployers:    4,
			TotalJobs:         30,
			PoliciesActivated: 9,
			SOSResponded:      1,
		}
		require.NoError(t, c.Set(ctx, "stats:impact", stats, time.Minute))

		var got domain.ImpactStats
		require.NoError(t, c.Get(ctx, "stats:impact", &got))
		assert.Equal(t, stats, got)

		require.NoError(t, c.Delete(ctx, "stats:impact"))
		assert.ErrorIs(t, c.Get(ctx, "stats:impact", &got), cache.ErrNotFound)
	})

	t.Run("missing key", func(t *testing.T) {
		var got string
		assert.ErrorIs(t, c.Get(ctx, "never-set", &got), cache.ErrNotFound)
	})
}

func TestCache_RejectsBadInput(t *testing.T) {
	c := New(cache.Options{RedisURL: "127.0.0.1:0", KeyPrefix: "test:"})
	defer c.Close()
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", "v", 0), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Get(ctx, "", new(string)), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Delete(ctx, ""), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "k", 42, 0), cache.ErrInvalidValue)
}

func TestCache_Key(t *testing.T) {
	c := New(cache.Options{KeyPrefix: "swayam:"})
	defer c.Close()

	k, err := c.key("stats:impact")
	assert.NoError(t, err)
	assert.Equal(t, "swayam:stats:impact", k)
}

func TestCache_TTL(t *testing.T) {
	c := New(cache.Options{DefaultTTL: 30 * time.Second})
	defer c.Close()

	assert.Equal(t, 30*time.Second, c.ttl(0))
	assert.Equal(t, time.Second, c.ttl(time.Second))

	fallback := New(cache.Options{})
	defer fallback.Close()
	assert.Equal(t, cache.DefaultOptions().DefaultTTL, fallback.ttl(0))
}
