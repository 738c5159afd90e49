package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

// Logger is the subset of the application logger used by the engine.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// WindowStore holds the request window a Tracker enforces.
type WindowStore interface {
	Window(ctx context.Context) (core.RateWindow, error)
	Reset(ctx context.Context, start time.Time) error
	Increment(ctx context.Context) (int, error)
}

// Tracker enforces a request quota per fixed window. A window restarts once it
// is older than Window, or after the caller has slept out an exhausted quota.
type Tracker struct {
	Store  WindowStore
	Quota  int
	Window time.Duration
	// Margin is added to every quota wait.
	Margin time.Duration
	Clock  func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger Logger

	mu sync.Mutex
	// generation counts window restarts made through this tracker.
	generation uint64
	logOnce    sync.Once
	quotaLog   *rate.Sometimes
}

// NewTracker returns a tracker with the default quota whose first window
// starts now.
func NewTracker(clock func() time.Time) *Tracker {
	t := &Tracker{
		Quota:  core.DefaultQuota,
		Window: core.DefaultWindow,
		Margin: time.Second,
		Clock:  clock,
	}
	t.Store = NewMemoryWindowStore(t.now())
	return t
}

// Ticket identifies the window a caller was admitted to or turned away from.
// ResetIfCurrent uses it so only one of several waiters restarts a window.
type Ticket struct {
	WindowStart time.Time
	generation  uint64
}

// Check returns how long the caller must wait before the next request. An
// expired window is reset and reported as no wait.
func (t *Tracker) Check(ctx context.Context) (time.Duration, error) {
	_, wait, err := t.admit(ctx, false)
	return wait, err
}

// Acquire blocks until the quota has room and counts one request in the same
// critical section as the check. It returns the total time spent waiting and
// the ticket of the window the request was counted in.
func (t *Tracker) Acquire(ctx context.Context) (time.Duration, Ticket, error) {
	return t.wait(ctx, true)
}

// WaitIfNeeded blocks while the quota is exhausted. The first waiter to wake
// starts a fresh window; later waiters re-check against it. It returns the
// total time spent waiting.
func (t *Tracker) WaitIfNeeded(ctx context.Context) (time.Duration, error) {
	waited, _, err := t.wait(ctx, false)
	return waited, err
}

func (t *Tracker) wait(ctx context.Context, record bool) (time.Duration, Ticket, error) {
	if t == nil {
		return 0, Ticket{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var waited time.Duration
	for {
		ticket, wait, err := t.admit(ctx, record)
		if err != nil || wait <= 0 {
			return waited, ticket, err
		}

		pause := wait + t.Margin
		t.logQuota(func() {
			t.info("Request quota reached, sleeping",
				zap.Int("quota", t.quota()),
				zap.Duration("sleep", pause))
		})

		if err := t.sleep(ctx, pause); err != nil {
			return waited, ticket, err
		}
		waited += wait

		if _, err := t.ResetIfCurrent(ctx, ticket); err != nil {
			return waited, ticket, err
		}
	}
}

// admit checks the window and, when record is set and there is room, counts
// one request. Both happen under t.mu.
func (t *Tracker) admit(ctx context.Context, record bool) (Ticket, time.Duration, error) {
	if t == nil {
		return Ticket{}, 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	store := t.store()
	window, err := store.Window(ctx)
	if err != nil {
		return Ticket{}, 0, err
	}

	now := t.now()
	elapsed := window.Elapsed(now)
	length := t.window()

	if elapsed >= length {
		if err := t.restart(ctx, now, window.Count); err != nil {
			return Ticket{}, 0, err
		}
		window = core.RateWindow{WindowStart: now}
		elapsed = 0
	}

	ticket := Ticket{WindowStart: window.WindowStart, generation: t.generation}
	if window.Count >= t.quota() {
		if elapsed < 0 {
			elapsed = 0
		}
		return ticket, length - elapsed, nil
	}

	if record {
		if _, err := store.Increment(ctx); err != nil {
			return ticket, 0, err
		}
	}
	return ticket, 0, nil
}

// ResetIfCurrent starts a new window only if the window named by ticket is
// still the current one. It reports whether it reset.
func (t *Tracker) ResetIfCurrent(ctx context.Context, ticket Ticket) (bool, error) {
	if t == nil {
		return false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.generation != ticket.generation {
		return false, nil
	}
	window, err := t.store().Window(ctx)
	if err != nil {
		return false, err
	}
	// Another process sharing the store already moved on.
	if window.WindowStart.After(ticket.WindowStart) {
		return false, nil
	}
	if err := t.restart(ctx, t.now(), window.Count); err != nil {
		return false, err
	}
	return true, nil
}

// Reset starts a new, empty window at the current time.
func (t *Tracker) Reset(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.restart(ctx, t.now(), -1)
}

// restart resets the store and bumps the generation. Callers hold t.mu.
func (t *Tracker) restart(ctx context.Context, now time.Time, previous int) error {
	if err := t.store().Reset(ctx, now); err != nil {
		return err
	}
	t.generation++
	fields := []zap.Field{zap.Time("window_start", now)}
	if previous >= 0 {
		fields = append(fields, zap.Int("previous_count", previous))
	}
	t.debug("Rate window reset", fields...)
	return nil
}

// RecordRequest counts one attempted request against the current window.
func (t *Tracker) RecordRequest(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.store().Increment(ctx)
	return err
}

// Snapshot returns the current window without modifying it.
func (t *Tracker) Snapshot(ctx context.Context) (core.RateWindow, error) {
	if t == nil {
		return core.RateWindow{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store().Window(ctx)
}

// QuotaLimit returns the effective requests-per-window ceiling.
func (t *Tracker) QuotaLimit() int {
	return t.quota()
}

func (t *Tracker) store() WindowStore {
	if t.Store == nil {
		t.Store = NewMemoryWindowStore(t.now())
	}
	return t.Store
}

func (t *Tracker) quota() int {
	if t == nil || t.Quota <= 0 {
		return core.DefaultQuota
	}
	return t.Quota
}

func (t *Tracker) window() time.Duration {
	if t == nil || t.Window <= 0 {
		return core.DefaultWindow
	}
	return t.Window
}

func (t *Tracker) now() time.Time {
	if t != nil && t.Clock != nil {
		return t.Clock()
	}
	return time.Now().UTC()
}

func (t *Tracker) sleep(ctx context.Context, d time.Duration) error {
	if t.Sleep != nil {
		return t.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

// logQuota coalesces quota logs from goroutines that hit the ceiling together.
func (t *Tracker) logQuota(fn func()) {
	t.logOnce.Do(func() {
		t.quotaLog = &rate.Sometimes{Interval: time.Second}
	})
	t.quotaLog.Do(fn)
}

func (t *Tracker) debug(msg string, fields ...zap.Field) {
	if t.Logger != nil {
		t.Logger.Debug(msg, fields...)
	}
}

func (t *Tracker) info(msg string, fields ...zap.Field) {
	if t.Logger != nil {
		t.Logger.Info(msg, fields...)
	}
}

// sleepContext pauses for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MemoryWindowStore keeps the window in process memory.
type MemoryWindowStore struct {
	mu     sync.Mutex
	window core.RateWindow
}

// NewMemoryWindowStore returns a store whose window starts at start.
func NewMemoryWindowStore(start time.Time) *MemoryWindowStore {
	return &MemoryWindowStore{window: core.RateWindow{WindowStart: start}}
}

// Window returns a copy of the current window.
func (m *MemoryWindowStore) Window(ctx context.Context) (core.RateWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window, nil
}

// Reset starts an empty window at start.
func (m *MemoryWindowStore) Reset(ctx context.Context, start time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = core.RateWindow{WindowStart: start}
	return nil
}

// Increment counts one request and returns the new count.
func (m *MemoryWindowStore) Increment(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window.Count++
	return m.window.Count, nil
}
