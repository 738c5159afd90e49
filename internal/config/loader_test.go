package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(ctx, newViper())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Client defaults
		assert.Equal(t, "BTC", cfg.Client.Network)
		assert.False(t, cfg.Client.Testnet)
		assert.Equal(t, "v1", cfg.Client.APIVersion)
		assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
		assert.Equal(t, 20, cfg.Client.PageLimit)
		assert.Equal(t, "asc", cfg.Client.SortDir)

		// Rate limit defaults
		assert.Equal(t, 300, cfg.RateLimit.Quota)
		assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
		assert.Equal(t, time.Second, cfg.RateLimit.Margin)
		assert.Equal(t, 15*time.Second, cfg.RateLimit.ThrottleSleep)
		assert.Equal(t, 15*time.Second, cfg.RateLimit.ServerSleep)
		assert.Equal(t, 15*time.Second, cfg.RateLimit.TransportSleep)
		assert.Zero(t, cfg.RateLimit.MaxRetries)
		assert.Equal(t, "memory", cfg.RateLimit.Backend)
		assert.Empty(t, cfg.RateLimit.RedisAddr)

		// Server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("blocktrail"), "blocktrail.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)

		// Cache defaults
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Cache.BlockTTL)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TransactionTTL)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("BLOCKTRAIL_CLIENT_API_KEY", "env-key")
		t.Setenv("BLOCKTRAIL_CLIENT_TESTNET", "true")
		t.Setenv("BLOCKTRAIL_RATE_LIMIT_QUOTA", "100")
		t.Setenv("BLOCKTRAIL_RATE_LIMIT_THROTTLE_SLEEP", "2s")
		t.Setenv("BLOCKTRAIL_RATE_LIMIT_MAX_RETRIES", "5")

		cfg, err := Load(ctx, newViper())
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Client.APIKey)
		assert.True(t, cfg.Client.Testnet)
		assert.Equal(t, 100, cfg.RateLimit.Quota)
		assert.Equal(t, 2*time.Second, cfg.RateLimit.ThrottleSleep)
		assert.Equal(t, 5, cfg.RateLimit.MaxRetries)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := strings.Join([]string{
			"client:",
			"  api_key: file-key",
			"  network: BTC",
			"  sort_dir: DESC",
			"rate_limit:",
			"  window: 2m",
			"cache:",
			"  enabled: false",
		}, "\n")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		v := newViper()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.Client.APIKey)
		assert.Equal(t, "desc", cfg.Client.SortDir)
		assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
		assert.False(t, cfg.Cache.Enabled)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		v := newViper()
		v.Set("rate_limit.quota", 0)
		v.Set("client.sort_dir", "sideways")

		_, err := Load(ctx, v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit.quota")
		assert.Contains(t, err.Error(), "client.sort_dir")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Load(cancelled, newViper())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Client:    ClientConfig{Network: "BTC", PageLimit: 20, SortDir: "asc"},
		RateLimit: RateLimitConfig{Quota: 300, Window: time.Minute},
	}
	require.NoError(t, cfg.Validate())

	cfg.Client.Network = ""
	require.Error(t, cfg.Validate())

	cfg.Client.Endpoint = "http://localhost:8080"
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.Backend = "redis"
	require.Error(t, cfg.Validate())
	cfg.RateLimit.RedisAddr = "localhost:6379"
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.ServerSleep = -time.Second
	require.Error(t, cfg.Validate())

	var nilCfg *Config
	require.Error(t, nilCfg.Validate())
}

func TestDefaultPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultStorePath(), "blocktrail.db"))
	if path := DefaultConfigPath(); path != "" {
		assert.Equal(t, "config.yaml", filepath.Base(path))
	}
}
