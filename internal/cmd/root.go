package cmd

import (
	"github.com/fatih/color"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Query the Blocktrail blockchain API",
	Long: `blocktrail - query addresses, blocks, transactions and webhooks through
the Blocktrail REST API.

Every call is counted against the account's request quota (300 requests per
60 seconds by default). When the quota runs out the CLI sleeps until the
window ends. Throttled, server and connection failures are retried.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	config.SetDefaults(viper.GetViper())
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/blocktrail/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	flags.BoolVar(&noColor, "no-color", false, "disable coloured table output")
	flags.String("api-key", "", "Blocktrail API key")
	flags.String("network", "", "network code, e.g. BTC")
	flags.Bool("testnet", false, "use the test network")
	flags.String("endpoint", "", "override the API base URL")
	flags.StringP("output-format", "o", string(defaultOutputFormat), "output format: table|json|yaml|markdown")
	flags.String("out", "", "write output to a file (default stdout)")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("client.api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("client.network", flags.Lookup("network"))
	_ = viper.BindPFlag("client.testnet", flags.Lookup("testnet"))
	_ = viper.BindPFlag("client.endpoint", flags.Lookup("endpoint"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if noColor {
		color.NoColor = true
	}

	debug := verbose || viper.GetBool("client.debug") || viper.GetBool("debug.enabled")
	observability.InitCLILogger(config.AppName, debug)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
		} else if verbose {
			observability.CLILogger.Warn("Could not resolve XDG config directory")
		}
		// Also search in current directory
		viper.AddConfigPath("./config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	} else if verbose {
		// It's OK if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			observability.CLILogger.Debug("No config file found, using defaults and environment variables")
		} else {
			observability.CLILogger.Warn("Error reading config file", zap.Error(err))
		}
	}
}
