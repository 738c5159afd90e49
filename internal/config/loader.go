// Package config loads blocktrail configuration from defaults, an optional
// YAML file and BLOCKTRAIL_* environment variables through viper.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// AppName names config and data directories.
	AppName = "blocktrail"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BLOCKTRAIL"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// Client defaults
	v.SetDefault("client.api_key", "")
	v.SetDefault("client.api_secret", "")
	v.SetDefault("client.network", "BTC")
	v.SetDefault("client.testnet", false)
	v.SetDefault("client.api_version", "v1")
	v.SetDefault("client.endpoint", "")
	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.user_agent", "")
	v.SetDefault("client.debug", false)
	v.SetDefault("client.page_limit", 20)
	v.SetDefault("client.sort_dir", "asc")

	// Rate limit defaults
	v.SetDefault("rate_limit.quota", 300)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.margin", "1s")
	v.SetDefault("rate_limit.throttle_sleep", "15s")
	v.SetDefault("rate_limit.server_sleep", "15s")
	v.SetDefault("rate_limit.transport_sleep", "15s")
	v.SetDefault("rate_limit.max_retries", 0)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.redis_addr", "")
	v.SetDefault("rate_limit.redis_password", "")
	v.SetDefault("rate_limit.redis_db", 0)
	v.SetDefault("rate_limit.redis_prefix", "blocktrail:ratelimit")

	// Store defaults
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.block_ttl", "24h")
	v.SetDefault("cache.transaction_ttl", "10m")
	v.SetDefault("cache.price_ttl", "1m")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
	v.SetDefault("debug.enabled", false)
}

// BindEnv maps BLOCKTRAIL_SECTION_KEY variables onto section.key settings.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v into a validated Config.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	cfg.Client.SortDir = strings.ToLower(strings.TrimSpace(cfg.Client.SortDir))
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var problems []string
	if strings.TrimSpace(c.Client.Endpoint) == "" && strings.TrimSpace(c.Client.Network) == "" {
		problems = append(problems, "client.network is required when client.endpoint is empty")
	}
	if c.Client.PageLimit < 0 || c.Client.PageLimit > 200 {
		problems = append(problems, "client.page_limit must be between 1 and 200")
	}
	switch c.Client.SortDir {
	case "", "asc", "desc":
	default:
		problems = append(problems, fmt.Sprintf("client.sort_dir must be asc or desc, got %q", c.Client.SortDir))
	}
	if c.Client.Timeout < 0 {
		problems = append(problems, "client.timeout must not be negative")
	}

	rl := c.RateLimit
	if rl.Quota <= 0 {
		problems = append(problems, "rate_limit.quota must be positive")
	}
	if rl.Window <= 0 {
		problems = append(problems, "rate_limit.window must be positive")
	}
	if rl.Margin < 0 || rl.ThrottleSleep < 0 || rl.ServerSleep < 0 || rl.TransportSleep < 0 {
		problems = append(problems, "rate_limit sleeps must not be negative")
	}
	switch rl.Backend {
	case "", "memory", "store":
	case "redis":
		if strings.TrimSpace(rl.RedisAddr) == "" {
			problems = append(problems, "rate_limit.redis_addr is required when rate_limit.backend is redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("rate_limit.backend must be memory, store or redis, got %q", rl.Backend))
	}
	if rl.MaxRetries < 0 {
		problems = append(problems, "rate_limit.max_retries must not be negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port out of range")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigDir returns the XDG-compliant config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := DefaultConfigDir()
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(AppName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := DefaultDataDir()
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}
