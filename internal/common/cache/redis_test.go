// internal/common/cache/redis_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	mr := miniredis.RunT(t)
	return mr, NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisCache_SetGetRoundTrip(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "hk:cat:SCT-snt-pt-wp:p1:s24", []byte(`{"total_count":55}`), time.Minute))

	val, err := c.Get(ctx, "hk:cat:SCT-snt-pt-wp:p1:s24")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total_count":55}`), val)
}

func TestRedisCache_MissingKey(t *testing.T) {
	_, c := newTestCache(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "page", []byte("data"), 30*time.Second))

	_, err := c.Get(ctx, "page")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	_, err = c.Get(ctx, "page")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_Ping(t *testing.T) {
	mr, c := newTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
