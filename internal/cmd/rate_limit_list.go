package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/output"
)

var (
	rateLimitListOutDir string
	rateLimitListAll    bool
	rateLimitListPrefix string
)

var rateLimitStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current window for the configured API key",
	Long: `Show the current window for the configured API key.

With the memory backend every process starts a fresh window, so this is only
informative for the store and redis backends.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		window, err := s.client.Tracker().Snapshot(ctx)
		if err != nil {
			return err
		}
		return writeResult(cmd, "rate-limit.status", []store.RateWindowEntry{{
			Scope:  windowScope(s.cfg.Client),
			Window: window,
		}})
	},
}

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List request windows persisted in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		db, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.RateWindowQuery{
			All:    rateLimitListAll,
			Prefix: strings.TrimSpace(rateLimitListPrefix),
		}
		if !query.All && query.Prefix == "" {
			query.All = true
		}

		entries, err := db.ListRateWindows(cmd.Context(), query)
		if err != nil {
			return err
		}

		if len(entries) == 0 && format == output.FormatTable {
			outPath, err := resolveOutputPath(cmd, "rate-limit.list", format)
			if err != nil {
				return err
			}
			sink, err := openSink(outPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = sink.close() }()
			return writeEmptyBox(sink.writer, "Rate Windows", "(no stored rate windows)")
		}

		return writeResult(cmd, "rate-limit.list", entries)
	},
}

func init() {
	rateLimitListCmd.Flags().StringVar(&rateLimitListOutDir, "out-dir", "", "Write output to a directory")
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "List all scopes")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "List scopes with matching prefix, e.g. BTC:")
}
