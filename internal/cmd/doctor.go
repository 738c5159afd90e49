package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/observability"
)

var doctorPing bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the local installation: config, API key, the
rate window backend and the response cache. With --ping one price lookup is
sent upstream, spending one request of the quota.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := observability.CLILogger
		log.Info("=== " + config.AppName + " doctor ===")
		log.Info("")

		allChecks := true
		totalChecks := 7
		step := func(n int, name string) string {
			return fmt.Sprintf("[%d/%d] Checking %s...", n, totalChecks, name)
		}

		goVersion := runtime.Version()
		log.Info(fmt.Sprintf("%s ✅ %s", step(1, "Go runtime"), goVersion), zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" {
			log.Info(fmt.Sprintf("%s ✅ gofulmen %s, crucible %s", step(2, "Gofulmen"), version.Gofulmen, version.Crucible))
		} else {
			log.Warn(step(2, "Gofulmen") + " ⚠️  version unknown")
			allChecks = false
		}

		if dir := config.DefaultConfigDir(); dir == "" {
			log.Warn(step(3, "config directory") + " ⚠️  cannot resolve XDG config directory")
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("%s ✅ %s (%s)", step(3, "config directory"), dir, existenceStatus(fileExists(dir))))
		}

		cfg, err := loadConfig(ctx)
		if err != nil {
			log.Error(step(4, "configuration")+" ❌ invalid", zap.Error(err))
			log.Info("")
			log.Warn("⚠️  Remaining checks skipped until the config loads.")
			return err
		}
		log.Info(fmt.Sprintf("%s ✅ quota %d per %s, backend %s", step(4, "configuration"),
			cfg.RateLimit.Quota, cfg.RateLimit.Window, cfg.RateLimit.Backend))

		if strings.TrimSpace(cfg.Client.APIKey) == "" {
			log.Warn(step(5, "API key") + " ⚠️  not set (use --api-key or BLOCKTRAIL_CLIENT_API_KEY)")
			allChecks = false
		} else {
			log.Info(step(5, "API key") + " ✅ set")
		}

		if cfg.Cache.Enabled || cfg.RateLimit.Backend == backendStore {
			db, storeErr := openStore(ctx, cfg.Store)
			if storeErr != nil {
				log.Error(step(6, "store")+" ❌ cannot open", zap.Error(storeErr))
				allChecks = false
			} else {
				_ = db.Close()
				log.Info(fmt.Sprintf("%s ✅ %s", step(6, "store"), describeStore(cfg.Store)))
			}
		} else {
			log.Info(step(6, "store") + " ✅ not used")
		}

		s, sessErr := newSession(ctx)
		if sessErr != nil {
			log.Error(step(7, "rate window")+" ❌ unavailable", zap.Error(sessErr))
			allChecks = false
		} else {
			defer s.Close()
			window, snapErr := s.client.Tracker().Snapshot(ctx)
			if snapErr != nil {
				log.Error(step(7, "rate window")+" ❌ unreadable", zap.Error(snapErr))
				allChecks = false
			} else {
				log.Info(fmt.Sprintf("%s ✅ %d/%d used (%s)", step(7, "rate window"),
					window.Count, s.client.Tracker().QuotaLimit(), cfg.RateLimit.Backend))
			}

			if doctorPing {
				if _, pingErr := s.client.Price(ctx); pingErr != nil {
					log.Error("Upstream ping ❌ "+s.client.Endpoint(), zap.Error(pingErr))
					allChecks = false
				} else {
					log.Info("Upstream ping ✅ " + s.client.Endpoint())
				}
			}
		}

		log.Info("")
		if !allChecks {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
			return errors.New("doctor: some checks failed")
		}
		log.Info("✅ All checks passed!")
		return nil
	},
}

var (
	doctorInitForce   bool
	doctorInitAPIKey  string
	doctorResetConfig bool
	doctorResetData   bool
	doctorResetAll    bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := targetConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue(cmd.InOrStdin(), cmd.ErrOrStderr(), "Enter Blocktrail API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		mode := os.FileMode(0o644)
		if apiKey != "" {
			mode = 0o600
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(apiKey)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.CLILogger
		configPath := targetConfigPath()
		dataDir := config.DefaultDataDir()

		log.Info("Configuration:")
		log.Info(fmt.Sprintf("  Config file:    %s (%s)", configPath, existenceStatus(fileExists(configPath))))
		if dataDir != "" {
			log.Info(fmt.Sprintf("  Data directory: %s (%s)", dataDir, existenceStatus(fileExists(dataDir))))
		} else {
			log.Info("  Data directory: (not resolved)")
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return nil
		}
		log.Info("  Database:       " + describeStore(cfg.Store))

		log.Info("")
		log.Info("Environment:")
		for _, name := range []string{"BLOCKTRAIL_CLIENT_API_KEY", "BLOCKTRAIL_CLIENT_API_SECRET", "BLOCKTRAIL_ADMIN_TOKEN"} {
			log.Info(fmt.Sprintf("  %s: %s", name, envStatus(name)))
		}

		log.Info("")
		log.Info("Effective Settings:")
		log.Info("  client.endpoint: " + cfg.Client.Endpoint)
		log.Info(fmt.Sprintf("  client.testnet: %t", cfg.Client.Testnet))
		log.Info("  rate_limit.backend: " + cfg.RateLimit.Backend)
		log.Info(fmt.Sprintf("  cache.enabled: %t", cfg.Cache.Enabled))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the user config file and/or the local database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config-file, --data, or --all")
		}

		// Resolve the database before the config file disappears.
		var dbPath string
		if doctorResetData {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}
			dbPath = storePath(cfg.Store)
		}

		if doctorResetConfig {
			if err := removeFile("Config", targetConfigPath()); err != nil {
				return fmt.Errorf("remove config file: %w", err)
			}
		}
		if doctorResetData {
			if err := removeFile("Database", dbPath); err != nil {
				return fmt.Errorf("remove database: %w", err)
			}
		}
		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := targetConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		if _, err := loadConfig(cmd.Context()); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().BoolVar(&doctorPing, "ping", false, "send one price lookup upstream")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "key", "", "set the API key or use 'prompt' to enter it")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config-file", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// targetConfigPath prefers --config over the XDG default.
func targetConfigPath() string {
	if strings.TrimSpace(cfgFile) != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func storePath(cfg config.StoreConfig) string {
	path := cfg.Path
	if path == "" {
		path = config.DefaultStorePath()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func describeStore(cfg config.StoreConfig) string {
	if cfg.URL != "" {
		return cfg.URL + " (remote)"
	}
	path := storePath(cfg)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Sprintf("%s (%s)", path, formatFileSize(info.Size()))
	case os.IsNotExist(err):
		return path + " (not created yet)"
	default:
		return fmt.Sprintf("%s (error: %v)", path, err)
	}
}

func removeFile(label, path string) error {
	if path == "" {
		observability.CLILogger.Warn(label + " path not resolved; skipping")
		return nil
	}
	err := os.Remove(path)
	switch {
	case err == nil:
		observability.CLILogger.Info(label+" removed", zap.String("path", path))
	case os.IsNotExist(err):
		observability.CLILogger.Info(label+" already removed", zap.String("path", path))
	default:
		return err
	}
	return nil
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func buildInitConfig(apiKey string) string {
	lines := []string{
		"# blocktrail config - created by 'blocktrail doctor init'",
		"client:",
		"  network: BTC",
		"  testnet: false",
	}
	if apiKey != "" {
		lines = append(lines, fmt.Sprintf("  api_key: %q", apiKey))
	} else {
		lines = append(lines, "  # api_key: \"\"  # or set BLOCKTRAIL_CLIENT_API_KEY")
	}
	lines = append(lines,
		"rate_limit:",
		"  quota: 300",
		"  window: 60s",
		"  backend: memory",
		"cache:",
		"  enabled: true",
	)
	return strings.Join(lines, "\n") + "\n"
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	value, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
