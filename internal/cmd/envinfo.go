package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.CLILogger
		version := crucible.GetVersion()

		log.Info("=== Blocktrail Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + config.AppName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return err
		}

		log.Info("Client:")
		endpoint := cfg.Client.Endpoint
		if strings.TrimSpace(endpoint) == "" {
			endpoint = "(derived from network)"
		}
		log.Info("  Endpoint:       "+endpoint, zap.String("endpoint", cfg.Client.Endpoint))
		log.Info("  Network:        "+cfg.Client.Network, zap.String("network", cfg.Client.Network))
		log.Info(fmt.Sprintf("  Testnet:        %t", cfg.Client.Testnet), zap.Bool("testnet", cfg.Client.Testnet))
		log.Info("  API Version:    " + cfg.Client.APIVersion)
		log.Info("  Timeout:        " + cfg.Client.Timeout.String())
		log.Info("  API Key:        " + setStatus(cfg.Client.APIKey))
		log.Info("  API Secret:     " + setStatus(cfg.Client.APISecret))
		log.Info("")

		log.Info("Rate Limit:")
		log.Info(fmt.Sprintf("  Quota:          %d per %s", cfg.RateLimit.Quota, cfg.RateLimit.Window),
			zap.Int("quota", cfg.RateLimit.Quota), zap.Duration("window", cfg.RateLimit.Window))
		log.Info("  Backend:        "+cfg.RateLimit.Backend, zap.String("backend", cfg.RateLimit.Backend))
		log.Info("  Scope:          " + windowScope(cfg.Client))
		if cfg.RateLimit.Backend == backendRedis {
			log.Info("  Redis:          " + cfg.RateLimit.RedisAddr)
		}
		retries := "unbounded"
		if cfg.RateLimit.MaxRetries > 0 {
			retries = fmt.Sprintf("%d", cfg.RateLimit.MaxRetries)
		}
		log.Info("  Max Retries:    " + retries)
		log.Info(fmt.Sprintf("  Retry Sleeps:   throttle %s, server %s, transport %s",
			cfg.RateLimit.ThrottleSleep, cfg.RateLimit.ServerSleep, cfg.RateLimit.TransportSleep))
		log.Info("")

		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		log.Info("  Database:       " + describeStore(cfg.Store))
		log.Info(fmt.Sprintf("  Cache Enabled:  %t", cfg.Cache.Enabled), zap.Bool("cache", cfg.Cache.Enabled))
		log.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info("  Config File:    " + targetConfigPath())
		log.Info("")
		log.Info("=== End Environment Information ===")
		return nil
	},
}

func setStatus(value string) string {
	if strings.TrimSpace(value) != "" {
		return "(set)"
	}
	return "(not set)"
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
