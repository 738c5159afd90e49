package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/config"
	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
	"github.com/blocktrail/blocktrail-go/internal/metrics"
	"github.com/blocktrail/blocktrail-go/internal/observability"
	"github.com/blocktrail/blocktrail-go/internal/server"
	"github.com/blocktrail/blocktrail-go/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return apperrors.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// registerHealthChecks wires the gateway's dependencies into hm.
func registerHealthChecks(hm *handlers.HealthManager, s *session, metricsEnabled bool) {
	hm.RegisterChecker("rate_window", handlers.CheckerFunc(func(ctx context.Context) error {
		window, err := s.client.Tracker().Snapshot(ctx)
		if err != nil {
			return err
		}
		metrics.SetRateWindowCount(window.Count)
		return nil
	}))
	if s.db != nil {
		hm.RegisterChecker("store", handlers.CheckerFunc(func(ctx context.Context) error {
			return s.db.DB.PingContext(ctx)
		}))
	}
	if s.redis != nil {
		hm.RegisterChecker("redis", handlers.CheckerFunc(func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		}))
	}
	if metricsEnabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API gateway",
	Long: `Start an HTTP gateway that relays read-only lookups through one client so
local tools share a single request quota.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (restart to apply client settings)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		namespace := config.AppName
		observability.InitServerLogger(config.AppName, cfg.Logging.Level, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return apperrors.WrapExternalService(ctx, err, "metrics initialization failed")
			}
		}

		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		logger.Info("Initializing gateway",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("endpoint", s.client.Endpoint()),
			zap.String("rate_backend", cfg.RateLimit.Backend),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("metrics", cfg.Metrics.Enabled))

		var health *handlers.HealthManager
		if cfg.Health.Enabled {
			health = handlers.NewHealthManager(versionInfo.Version)
			registerHealthChecks(health, s, cfg.Metrics.Enabled)
		}

		handlers.SetUpstreamInfo(&handlers.UpstreamInfo{
			Endpoint:    s.client.Endpoint(),
			Quota:       s.client.Tracker().QuotaLimit(),
			Window:      cfg.RateLimit.Window.String(),
			RateBackend: cfg.RateLimit.Backend,
			Cache:       s.db != nil && cfg.Cache.Enabled,
		})

		started := time.Now()
		metrics.SetServerStartTime(started.Unix())

		srv := server.New(cfg.Server, server.Options{
			API:        s.client,
			Quota:      s.client.Tracker(),
			Window:     cfg.RateLimit.Window,
			Health:     health,
			AdminToken: strings.TrimSpace(os.Getenv("BLOCKTRAIL_ADMIN_TOKEN")),
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		signals.OnShutdown(func(ctx context.Context) error {
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Debug("Logger sync returned error", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			metrics.SetServerUptime(int64(time.Since(started).Seconds()))
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return apperrors.WrapExternalService(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return apperrors.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if _, err := config.Load(ctx, viper.GetViper()); err != nil {
				return apperrors.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Configuration reloaded; client settings apply after restart",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			// Start returns nil once Shutdown has drained the server.
			errChan <- srv.Start()
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return apperrors.WrapExternalService(ctx, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (default from config)")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
