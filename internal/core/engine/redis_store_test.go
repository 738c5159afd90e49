package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("BLOCKTRAIL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BLOCKTRAIL_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisWindowStoreRoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	prefix := "blocktrail:test:" + uuid.NewString()
	store := NewRedisWindowStore(rdb, WithWindowPrefix(prefix), WithWindowTTL(time.Minute))
	t.Cleanup(func() { _ = rdb.Del(context.Background(), prefix+":window").Err() })

	window, err := store.Window(ctx)
	require.NoError(t, err)
	require.True(t, window.WindowStart.IsZero())

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Reset(ctx, start))

	count, err := store.Increment(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	count, err = store.Increment(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	window, err = store.Window(ctx)
	require.NoError(t, err)
	require.Equal(t, start, window.WindowStart)
	require.Equal(t, 2, window.Count)
}

func TestTrackerSharesRedisWindow(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	prefix := "blocktrail:test:" + uuid.NewString()
	t.Cleanup(func() { _ = rdb.Del(context.Background(), prefix+":window").Err() })

	clock := newFakeClock()
	first := newTestTracker(clock)
	first.Store = NewRedisWindowStore(rdb, WithWindowPrefix(prefix))
	second := newTestTracker(clock)
	second.Store = NewRedisWindowStore(rdb, WithWindowPrefix(prefix))

	require.NoError(t, first.Reset(ctx))
	require.NoError(t, first.RecordRequest(ctx))
	require.NoError(t, second.RecordRequest(ctx))

	window, err := second.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, window.Count)
}

func TestRedisWindowStoreUnconfigured(t *testing.T) {
	var store *RedisWindowStore
	_, err := store.Window(context.Background())
	require.Error(t, err)
}
