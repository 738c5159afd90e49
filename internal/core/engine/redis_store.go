package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

const (
	fieldWindowStart = "start"
	fieldWindowCount = "count"
)

// RedisWindowStore shares one request window between processes that use the
// same API key.
type RedisWindowStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type RedisWindowOption func(*RedisWindowStore)

// WithWindowPrefix sets the key namespace. Use one prefix per API key.
func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// WithWindowTTL expires an idle window key.
func WithWindowTTL(d time.Duration) RedisWindowOption {
	return func(s *RedisWindowStore) { s.ttl = d }
}

// NewRedisWindowStore returns a window store keyed under prefix ":window" in redis.
func NewRedisWindowStore(rdb redis.UniversalClient, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		prefix: "blocktrail:ratelimit",
		ttl:    2 * core.DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisWindowStore) key() string {
	return s.prefix + ":window"
}

// Window returns the shared window. A missing key reads as a window that
// started at the zero time, which the tracker treats as expired.
func (s *RedisWindowStore) Window(ctx context.Context) (core.RateWindow, error) {
	if s == nil || s.rdb == nil {
		return core.RateWindow{}, errors.New("redis window store not configured")
	}

	values, err := s.rdb.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return core.RateWindow{}, err
	}

	var window core.RateWindow
	if raw, ok := values[fieldWindowStart]; ok {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return core.RateWindow{}, err
		}
		window.WindowStart = time.Unix(0, nanos).UTC()
	}
	if raw, ok := values[fieldWindowCount]; ok {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return core.RateWindow{}, err
		}
		window.Count = count
	}
	return window, nil
}

// Reset replaces the window with an empty one starting at start.
func (s *RedisWindowStore) Reset(ctx context.Context, start time.Time) error {
	if s == nil || s.rdb == nil {
		return errors.New("redis window store not configured")
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(), fieldWindowStart, start.UnixNano(), fieldWindowCount, 0)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(), s.ttl)
		}
		return nil
	})
	return err
}

// Increment counts one request and returns the new count.
func (s *RedisWindowStore) Increment(ctx context.Context) (int, error) {
	if s == nil || s.rdb == nil {
		return 0, errors.New("redis window store not configured")
	}

	pipe := s.rdb.TxPipeline()
	incr := pipe.HIncrBy(ctx, s.key(), fieldWindowCount, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}
