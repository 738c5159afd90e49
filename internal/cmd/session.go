package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/core/engine"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
	"github.com/blocktrail/blocktrail-go/internal/metrics"
	"github.com/blocktrail/blocktrail-go/internal/observability"
)

// Rate window backends.
const (
	backendMemory = "memory"
	backendStore  = "store"
	backendRedis  = "redis"
)

// session bundles a configured client with the resources it holds open.
type session struct {
	cfg    *config.Config
	client *blocktrail.Client
	db     *store.Store
	redis  redis.UniversalClient
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, viper.GetViper())
	if err != nil {
		return nil, apperrors.WrapConfigInvalid(ctx, err, "load config")
	}
	return cfg, nil
}

// newSession loads configuration and builds a client whose rate window lives
// in the configured backend.
func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	backend := strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))

	if backend == backendStore || cfg.Cache.Enabled {
		db, err := openStore(ctx, cfg.Store)
		switch {
		case err == nil:
			s.db = db
		case backend == backendStore:
			return nil, fmt.Errorf("open rate window store: %w", err)
		default:
			logWarn("Response cache unavailable, continuing without it", zap.Error(err))
		}
	}

	opts := []blocktrail.Option{
		blocktrail.WithRateLimit(cfg.RateLimit),
		blocktrail.WithObserver(metrics.DispatchObserver(nil)),
	}
	if logger := observability.Logger(); logger != nil {
		opts = append(opts, blocktrail.WithLogger(logger))
	}
	if s.db != nil && cfg.Cache.Enabled {
		opts = append(opts, blocktrail.WithCache(s.db, cfg.Cache))
	}

	scope := windowScope(cfg.Client)
	switch backend {
	case backendStore:
		opts = append(opts, blocktrail.WithWindowStore(s.db.WindowStore(scope)))
	case backendRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RateLimit.RedisAddr},
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			s.Close()
			return nil, apperrors.WrapExternalService(ctx, err, "connect to redis rate window")
		}
		s.redis = rdb
		opts = append(opts, blocktrail.WithWindowStore(engine.NewRedisWindowStore(rdb,
			engine.WithWindowPrefix(cfg.RateLimit.RedisPrefix+":"+scope),
			engine.WithWindowTTL(2*cfg.RateLimit.Window))))
	}

	client, err := blocktrail.New(cfg.Client, opts...)
	if err != nil {
		s.Close()
		return nil, apperrors.WrapConfigInvalid(ctx, err, "build api client")
	}
	s.client = client

	logDebug("API client ready",
		zap.String("endpoint", client.Endpoint()),
		zap.String("rate_backend", backend),
		zap.String("rate_scope", scope),
		zap.Bool("cache", s.db != nil && cfg.Cache.Enabled))
	return s, nil
}

// Close releases the store and redis connections.
func (s *session) Close() {
	if s == nil {
		return
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// windowScope names the rate window shared by every process using the same
// key on the same network. The key itself is never stored.
func windowScope(cfg config.ClientConfig) string {
	network := strings.ToUpper(strings.TrimSpace(cfg.Network))
	if network == "" {
		network = "BTC"
	}
	if cfg.Testnet {
		network = "t" + network
	}

	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return network + ":anonymous"
	}
	sum := sha256.Sum256([]byte(key))
	return network + ":" + hex.EncodeToString(sum[:8])
}

func logDebug(msg string, fields ...zap.Field) {
	if logger := observability.Logger(); logger != nil {
		logger.Debug(msg, fields...)
	}
}

func logWarn(msg string, fields ...zap.Field) {
	if logger := observability.Logger(); logger != nil {
		logger.Warn(msg, fields...)
	}
}
