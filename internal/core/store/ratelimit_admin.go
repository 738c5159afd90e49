package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

type RateWindowEntry struct {
	Scope  string          `json:"scope"`
	Window core.RateWindow `json:"window"`
}

type RateWindowQuery struct {
	All    bool
	Scope  string
	Prefix string
}

func (q RateWindowQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Scope) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --scope, or --prefix")
}

func (q RateWindowQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if scope := strings.TrimSpace(q.Scope); scope != "" {
		return "WHERE scope = ?", []any{scope}, nil
	}
	prefix := strings.TrimSpace(q.Prefix)
	if prefix == "" {
		return "", nil, errors.New("prefix is required")
	}
	return "WHERE scope LIKE ?", []any{prefix + "%"}, nil
}

func (s *Store) ListRateWindows(ctx context.Context, q RateWindowQuery) ([]RateWindowEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT scope, request_count, window_start
		FROM rate_windows
		%s
		ORDER BY scope
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list rate windows: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []RateWindowEntry{}
	for rows.Next() {
		var (
			scope        string
			requestCount int
			windowStart  int64
		)
		if err := rows.Scan(&scope, &requestCount, &windowStart); err != nil {
			return nil, fmt.Errorf("scan rate windows: %w", err)
		}

		entries = append(entries, RateWindowEntry{
			Scope: scope,
			Window: core.RateWindow{
				Count:       requestCount,
				WindowStart: time.Unix(0, windowStart).UTC(),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate windows: %w", err)
	}

	return entries, nil
}

func (s *Store) ResetRateWindows(ctx context.Context, q RateWindowQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM rate_windows
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset rate windows: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rate windows: %w", err)
	}
	return affected, nil
}
