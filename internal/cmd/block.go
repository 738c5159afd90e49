package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/core"
)

var blockCmd = &cobra.Command{
	Use:   "block <hash|height>",
	Short: "Show a block by hash or height",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "block", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.Block(ctx, args[0])
		})
	},
}

var blockLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "block.latest", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.BlockLatest(ctx)
		})
	},
}

var blockTxsPaging, blockAllPaging *pageFlags

var blockTxsCmd = &cobra.Command{
	Use:     "txs <hash|height>",
	Aliases: []string{"transactions"},
	Short:   "List the transactions in a block",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "block.transactions", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, blockTxsPaging, func(ctx context.Context, opts blocktrail.PageOptions) (*core.Page[core.Transaction], error) {
				return c.BlockTransactions(ctx, args[0], opts)
			})
		})
	},
}

var blockAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "block.all", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, blockAllPaging, c.AllBlocks)
		})
	},
}

func init() {
	blockTxsPaging = addPageFlags(blockTxsCmd, true)
	blockAllPaging = addPageFlags(blockAllCmd, true)

	blockCmd.AddCommand(blockLatestCmd)
	blockCmd.AddCommand(blockTxsCmd)
	blockCmd.AddCommand(blockAllCmd)
	rootCmd.AddCommand(blockCmd)
}
