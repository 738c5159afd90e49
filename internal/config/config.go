package config

import (
	"time"
)

// Config represents the complete application configuration.
// Values come from defaults, an optional YAML file and BLOCKTRAIL_*
// environment variables, in increasing order of precedence.
type Config struct {
	Client    ClientConfig    `mapstructure:"client"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ClientConfig identifies the API account and network.
type ClientConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	// Network is the chain code, e.g. BTC. Testnet selects its test chain.
	Network    string `mapstructure:"network"`
	Testnet    bool   `mapstructure:"testnet"`
	APIVersion string `mapstructure:"api_version"`

	// Endpoint overrides the URL built from network, testnet and version.
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Debug     bool          `mapstructure:"debug"`

	// Defaults for paginated lookups.
	PageLimit int    `mapstructure:"page_limit"`
	SortDir   string `mapstructure:"sort_dir"`
}

// RateLimitConfig controls the request quota and retry behaviour.
type RateLimitConfig struct {
	Quota          int           `mapstructure:"quota"`
	Window         time.Duration `mapstructure:"window"`
	Margin         time.Duration `mapstructure:"margin"`
	ThrottleSleep  time.Duration `mapstructure:"throttle_sleep"`
	ServerSleep    time.Duration `mapstructure:"server_sleep"`
	TransportSleep time.Duration `mapstructure:"transport_sleep"`

	// MaxRetries of 0 retries transient failures forever.
	MaxRetries int `mapstructure:"max_retries"`

	// Backend selects where the window lives: memory, store or redis.
	Backend string `mapstructure:"backend"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains response cache TTLs. A zero TTL disables caching for
// that kind.
type CacheConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BlockTTL       time.Duration `mapstructure:"block_ttl"`
	TransactionTTL time.Duration `mapstructure:"transaction_ttl"`
	PriceTTL       time.Duration `mapstructure:"price_ttl"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug configuration
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
