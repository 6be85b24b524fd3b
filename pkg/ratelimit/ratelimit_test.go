package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLimiter(rdb), mr
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	bucket := Bucket{Name: "test", Limit: 3, Window: time.Minute}

	for i := int64(1); i <= 3; i++ {
		res, err := limiter.Allow(context.Background(), bucket, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(3), res.Limit)
		assert.Equal(t, 3-i, res.Remaining)
	}
}

func TestDenyOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	bucket := Bucket{Name: "test", Limit: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(context.Background(), bucket, "user-1")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	res, err := limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestIdentitiesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	bucket := Bucket{Name: "test", Limit: 1, Window: time.Minute}

	res, err := limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), bucket, "user-2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestWindowReset(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	bucket := Bucket{Name: "test", Limit: 1, Window: time.Minute}

	res, err := limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	mr.FastForward(time.Minute + time.Second)

	res, err = limiter.Allow(context.Background(), bucket, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
