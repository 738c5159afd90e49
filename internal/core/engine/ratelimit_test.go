package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func newTestTracker(clock *fakeClock) *Tracker {
	tracker := NewTracker(clock.Now)
	tracker.Sleep = clock.Sleep
	return tracker
}

func recordN(t *testing.T, tracker *Tracker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, tracker.RecordRequest(context.Background()))
	}
}

func TestTrackerNoWaitUnderQuota(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	recordN(t, tracker, 299)
	clock.Advance(30 * time.Second)

	wait, err := tracker.Check(context.Background())
	require.NoError(t, err)
	require.Zero(t, wait)

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 299, window.Count)
}

func TestTrackerWaitAtQuota(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	recordN(t, tracker, 300)
	clock.Advance(10 * time.Second)

	wait, err := tracker.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50*time.Second, wait)

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 300, window.Count)
}

func TestTrackerExpiredWindowResets(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	recordN(t, tracker, 300)
	clock.Advance(61 * time.Second)

	wait, err := tracker.Check(context.Background())
	require.NoError(t, err)
	require.Zero(t, wait)

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, window.Count)
	require.Equal(t, clock.Now(), window.WindowStart)
}

func TestTrackerExpiryAtExactWindowBoundary(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	recordN(t, tracker, 300)
	clock.Advance(core.DefaultWindow)

	wait, err := tracker.Check(context.Background())
	require.NoError(t, err)
	require.Zero(t, wait)
}

func TestTrackerWaitIfNeededSleepsAndResets(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	recordN(t, tracker, 300)
	clock.Advance(10 * time.Second)

	wait, err := tracker.WaitIfNeeded(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50*time.Second, wait)
	require.Equal(t, []time.Duration{51 * time.Second}, clock.Sleeps())

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, window.Count)
	require.Equal(t, clock.Now(), window.WindowStart)
}

func TestTrackerWaitIfNeededUnderQuota(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	recordN(t, tracker, 10)

	wait, err := tracker.WaitIfNeeded(context.Background())
	require.NoError(t, err)
	require.Zero(t, wait)
	require.Empty(t, clock.Sleeps())
}

func TestTrackerWaitIfNeededHonoursCancel(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	recordN(t, tracker, 300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tracker.WaitIfNeeded(ctx)
	require.ErrorIs(t, err, context.Canceled)

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 300, window.Count)
}

func TestTrackerResetClearsCount(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	recordN(t, tracker, 42)
	clock.Advance(5 * time.Second)

	require.NoError(t, tracker.Reset(context.Background()))

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, window.Count)
	require.Equal(t, clock.Now(), window.WindowStart)
}

func TestTrackerCustomQuota(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	tracker.Quota = 2
	tracker.Window = 10 * time.Second

	recordN(t, tracker, 2)
	clock.Advance(4 * time.Second)

	wait, err := tracker.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6*time.Second, wait)
	require.Equal(t, 2, tracker.QuotaLimit())
}

func TestTrackerConcurrentRecords(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tracker.RecordRequest(context.Background())
		}()
	}
	wg.Wait()

	window, err := tracker.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50, window.Count)
}

type failingStore struct{ err error }

func (f failingStore) Window(ctx context.Context) (core.RateWindow, error) {
	return core.RateWindow{}, f.err
}

func (f failingStore) Reset(ctx context.Context, start time.Time) error { return f.err }

func (f failingStore) Increment(ctx context.Context) (int, error) { return 0, f.err }

func TestTrackerStoreErrorsPropagate(t *testing.T) {
	storeErr := errors.New("store down")
	tracker := &Tracker{Store: failingStore{err: storeErr}}

	_, err := tracker.Check(context.Background())
	require.ErrorIs(t, err, storeErr)
	require.ErrorIs(t, tracker.RecordRequest(context.Background()), storeErr)
	require.ErrorIs(t, tracker.Reset(context.Background()), storeErr)
}

func TestNilTrackerIsNoop(t *testing.T) {
	var tracker *Tracker
	wait, err := tracker.WaitIfNeeded(context.Background())
	require.NoError(t, err)
	require.Zero(t, wait)
	require.NoError(t, tracker.RecordRequest(context.Background()))
	require.Equal(t, core.DefaultQuota, tracker.QuotaLimit())
}
