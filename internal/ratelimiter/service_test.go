package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caimel/mediacore/internal/models"
	"github.com/caimel/mediacore/internal/redisqueue"
)

func newTestService(t *testing.T, now func() time.Time) (*Service, *redisqueue.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisqueue.New(client, "ratelimit:")
	return NewService(store, now), store
}

func TestCheck_SlidingWindow_AllowsUntilLimit(t *testing.T) {
	ctx := context.Background()
	current := time.UnixMilli(1_000_000)
	svc, _ := newTestService(t, func() time.Time { return current })

	req := models.CheckRequest{ID: "user-1", Limit: 3, WindowMs: 1000, Algo: models.AlgoSliding}

	for i := 0; i < 3; i++ {
		result, err := svc.Check(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Allow, "request %d should be allowed", i)
	}

	result, err := svc.Check(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Allow)
	assert.Equal(t, int64(0), result.Remaining)
	assert.Greater(t, result.RetryAfter, int64(0))
}

func TestCheck_SlidingWindow_ExpiresOldEntries(t *testing.T) {
	ctx := context.Background()
	current := time.UnixMilli(1_000_000)
	svc, _ := newTestService(t, func() time.Time { return current })

	req := models.CheckRequest{ID: "user-2", Limit: 1, WindowMs: 500, Algo: models.AlgoSliding}

	result, err := svc.Check(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Allow)

	result, err = svc.Check(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Allow)

	current = current.Add(600 * time.Millisecond)
	result, err = svc.Check(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Allow, "entry should have expired out of the window")
}

func TestCheck_FixedWindow_ResetsOnBoundary(t *testing.T) {
	ctx := context.Background()
	current := time.UnixMilli(0)
	svc, _ := newTestService(t, func() time.Time { return current })

	req := models.CheckRequest{ID: "user-3", Limit: 2, WindowMs: 1000, Algo: models.AlgoFixed}

	for i := 0; i < 2; i++ {
		result, err := svc.Check(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Allow)
	}

	result, err := svc.Check(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Allow)

	current = current.Add(1100 * time.Millisecond)
	result, err = svc.Check(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Allow, "next bucket should reset the count")
}

func TestCheck_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.Check(ctx, models.CheckRequest{Limit: 1, WindowMs: 1000})
	assert.Error(t, err)

	_, err = svc.Check(ctx, models.CheckRequest{ID: "x", Limit: 0, WindowMs: 1000})
	assert.Error(t, err)

	_, err = svc.Check(ctx, models.CheckRequest{ID: "x", Limit: 1, WindowMs: 0})
	assert.Error(t, err)

	_, err = svc.Check(ctx, models.CheckRequest{ID: "x", Limit: 1, WindowMs: 1000, Algo: "bogus"})
	assert.Error(t, err)
}
