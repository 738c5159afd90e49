package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

// GetRateWindow returns the stored window for a scope, or nil when none has
// been recorded.
func (s *Store) GetRateWindow(ctx context.Context, scope string) (*core.RateWindow, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, errors.New("scope is required")
	}

	var (
		requestCount int
		windowStart  int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT request_count, window_start
		FROM rate_windows
		WHERE scope = ?
	`, scope)

	if err := row.Scan(&requestCount, &windowStart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate window: %w", err)
	}

	return &core.RateWindow{
		Count:       requestCount,
		WindowStart: time.Unix(0, windowStart).UTC(),
	}, nil
}

// ResetRateWindow starts a new, empty window for a scope.
func (s *Store) ResetRateWindow(ctx context.Context, scope string, start time.Time) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("scope is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_windows (scope, request_count, window_start)
		VALUES (?, 0, ?)
		ON CONFLICT(scope) DO UPDATE SET
			request_count = 0,
			window_start = excluded.window_start
	`, scope, start.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("store rate window: %w", err)
	}

	return nil
}

// IncrementRateWindow counts one request for a scope and returns the new count.
// A scope with no window yet gets one that started at the zero time.
func (s *Store) IncrementRateWindow(ctx context.Context, scope string) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scope = strings.TrimSpace(scope)
	if scope == "" {
		return 0, errors.New("scope is required")
	}

	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_windows (scope, request_count, window_start)
		VALUES (?, 1, 0)
		ON CONFLICT(scope) DO UPDATE SET
			request_count = request_count + 1
	`, scope); err != nil {
		return 0, fmt.Errorf("increment rate window: %w", err)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `
		SELECT request_count FROM rate_windows WHERE scope = ?
	`, scope).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment rate window: %w", err)
	}
	return count, nil
}

// WindowStore persists one scope's request window so consecutive CLI runs
// share the quota.
type WindowStore struct {
	store *Store
	scope string
}

// WindowStore returns a window store bound to scope.
func (s *Store) WindowStore(scope string) *WindowStore {
	return &WindowStore{store: s, scope: scope}
}

func (w *WindowStore) Window(ctx context.Context) (core.RateWindow, error) {
	window, err := w.store.GetRateWindow(ctx, w.scope)
	if err != nil || window == nil {
		return core.RateWindow{}, err
	}
	return *window, nil
}

func (w *WindowStore) Reset(ctx context.Context, start time.Time) error {
	return w.store.ResetRateWindow(ctx, w.scope, start)
}

func (w *WindowStore) Increment(ctx context.Context) (int, error) {
	return w.store.IncrementRateWindow(ctx, w.scope)
}
