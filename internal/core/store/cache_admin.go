package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type CacheQuery struct {
	All         bool
	Kind        string
	Network     string
	ExpiredOnly bool
}

func (q CacheQuery) Validate() error {
	if q.All || q.ExpiredOnly {
		return nil
	}
	if strings.TrimSpace(q.Kind) != "" {
		return nil
	}
	if strings.TrimSpace(q.Network) != "" {
		return nil
	}
	return errors.New("must specify --all, --expired, --kind, or --network")
}

func (q CacheQuery) whereClause(now time.Time) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var (
		clauses []string
		args    []any
	)
	if kind := strings.TrimSpace(q.Kind); kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, kind)
	}
	if network := strings.TrimSpace(q.Network); network != "" {
		clauses = append(clauses, "network = ?")
		args = append(args, network)
	}
	if q.ExpiredOnly {
		clauses = append(clauses, "expires_at <= ?")
		args = append(args, now.Unix())
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (s *Store) ListCachedResponses(ctx context.Context, q CacheQuery) ([]CacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause(s.now())
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT kind, key, network, fetched_at, expires_at
		FROM response_cache
		%s
		ORDER BY kind, network, key
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list cached responses: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []CacheEntry{}
	for rows.Next() {
		var (
			kind      string
			entry     CacheEntry
			fetchedAt int64
			expiresAt int64
		)
		if err := rows.Scan(&kind, &entry.Key, &entry.Network, &fetchedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cached responses: %w", err)
		}
		entry.Kind = CacheKind(kind)
		entry.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached responses: %w", err)
	}

	return entries, nil
}

func (s *Store) PurgeCachedResponses(ctx context.Context, q CacheQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause(s.now())
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM response_cache
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("purge cached responses: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cached responses: %w", err)
	}
	return affected, nil
}
