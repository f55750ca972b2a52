package redisqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow_AdmitsUpToLimitThenBlocks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var now int64 = 1_000_000
	for i := 0; i < 3; i++ {
		count, _, err := store.SlidingWindow(ctx, "user-a", now, 1000, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	count, _, err := store.SlidingWindow(ctx, "user-a", now, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "fourth check should see the limit already reached")
}

func TestFixedWindowIncr_AccumulatesWithinBucket(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	v1, err := store.FixedWindowIncr(ctx, "fw:user-b:0", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := store.FixedWindowIncr(ctx, "fw:user-b:0", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)
}
