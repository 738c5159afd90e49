package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CacheKind groups cached responses by endpoint family.
type CacheKind string

const (
	CacheKindBlock       CacheKind = "block"
	CacheKindTransaction CacheKind = "transaction"
	CacheKindPrice       CacheKind = "price"
)

// CacheEntry is one cached API response body.
type CacheEntry struct {
	Kind      CacheKind `json:"kind"`
	Key       string    `json:"key"`
	Network   string    `json:"network"`
	Body      []byte    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// GetCachedResponse returns a cached body if it is still valid. A miss
// returns nil without error.
func (s *Store) GetCachedResponse(ctx context.Context, kind CacheKind, network, key string) (*CacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("cache key is required")
	}
	network = normalizeNetwork(network)

	var (
		body      string
		fetchedAt int64
		expiresAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT body, fetched_at, expires_at
		FROM response_cache
		WHERE kind = ? AND key = ? AND network = ? AND expires_at > ?
	`, string(kind), key, network, s.now().Unix())

	if err := row.Scan(&body, &fetchedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached response: %w", err)
	}

	return &CacheEntry{
		Kind:      kind,
		Key:       key,
		Network:   network,
		Body:      []byte(body),
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// SetCachedResponse stores a response body with a TTL. A non-positive TTL
// stores nothing.
func (s *Store) SetCachedResponse(ctx context.Context, kind CacheKind, network, key string, body []byte, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 || len(body) == 0 {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	now := s.now()
	expires := now.Add(ttl)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO response_cache (kind, key, network, body, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, key, network) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`, string(kind), key, normalizeNetwork(network), string(body), now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}

	return nil
}

func normalizeNetwork(network string) string {
	return strings.TrimSpace(network)
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}
