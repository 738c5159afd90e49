package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and purge cached API responses",
}

var (
	cacheListKind    string
	cacheListNetwork string
	cacheListExpired bool
)

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached responses",
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

		query := store.CacheQuery{
			Kind:        strings.TrimSpace(cacheListKind),
			Network:     strings.TrimSpace(cacheListNetwork),
			ExpiredOnly: cacheListExpired,
		}
		if query.Validate() != nil {
			query.All = true
		}

		entries, err := db.ListCachedResponses(cmd.Context(), query)
		if err != nil {
			return err
		}

		if len(entries) == 0 && format == output.FormatTable {
			outPath, err := resolveOutputPath(cmd, "cache.list", format)
			if err != nil {
				return err
			}
			sink, err := openSink(outPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = sink.close() }()
			return writeEmptyBox(sink.writer, "Response Cache", "(no cached responses)")
		}

		return writeResult(cmd, "cache.list", entries)
	},
}

var (
	cachePurgeAll     bool
	cachePurgeKind    string
	cachePurgeNetwork string
	cachePurgeExpired bool
	cachePurgeYes     bool
	cachePurgeDryRun  bool
)

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.CacheQuery{
			All:         cachePurgeAll,
			Kind:        strings.TrimSpace(cachePurgeKind),
			Network:     strings.TrimSpace(cachePurgeNetwork),
			ExpiredOnly: cachePurgeExpired,
		}
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !cachePurgeYes && !cachePurgeDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.ListCachedResponses(cmd.Context(), query)
		if err != nil {
			return err
		}

		outPath, err := resolveOutputPath(cmd, "cache.purge", format)
		if err != nil {
			return err
		}
		sink, err := openSink(outPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		result := purgeResult{Matched: len(matched), DryRun: cachePurgeDryRun}
		if !cachePurgeDryRun {
			result.Deleted, err = db.PurgeCachedResponses(cmd.Context(), query)
			if err != nil {
				return err
			}
		}

		return writePurgeResult(format, sink.writer, "cached response(s)", result)
	},
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheListKind, "kind", "", "Only list one kind: block|transaction|price")
	cacheListCmd.Flags().StringVar(&cacheListNetwork, "network", "", "Only list one network, e.g. BTC or tBTC")
	cacheListCmd.Flags().BoolVar(&cacheListExpired, "expired", false, "Only list expired entries")

	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "Purge every entry")
	cachePurgeCmd.Flags().StringVar(&cachePurgeKind, "kind", "", "Purge one kind: block|transaction|price")
	cachePurgeCmd.Flags().StringVar(&cachePurgeNetwork, "network", "", "Purge one network")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeExpired, "expired", false, "Purge expired entries only")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeYes, "yes", false, "Confirm destructive purge")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeDryRun, "dry-run", false, "Show what would be deleted")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
