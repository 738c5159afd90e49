package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/core/store"
)

var (
	rateLimitResetAll    bool
	rateLimitResetScope  string
	rateLimitResetPrefix string
	rateLimitResetYes    bool
	rateLimitResetDryRun bool
	rateLimitResetOutDir string
)

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete request windows persisted in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.RateWindowQuery{
			All:    rateLimitResetAll,
			Scope:  strings.TrimSpace(rateLimitResetScope),
			Prefix: strings.TrimSpace(rateLimitResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		if query.All && !rateLimitResetYes && !rateLimitResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.ListRateWindows(cmd.Context(), query)
		if err != nil {
			return err
		}

		outPath, err := resolveOutputPath(cmd, "rate-limit.reset", format)
		if err != nil {
			return err
		}
		sink, err := openSink(outPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		result := purgeResult{Matched: len(matched), DryRun: rateLimitResetDryRun}
		if !rateLimitResetDryRun {
			result.Deleted, err = db.ResetRateWindows(cmd.Context(), query)
			if err != nil {
				return err
			}
		}

		return writePurgeResult(format, sink.writer, "rate window(s)", result)
	},
}

func init() {
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset all scopes")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetScope, "scope", "", "Reset a single scope (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset scopes with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetOutDir, "out-dir", "", "Write output to a directory")
}
