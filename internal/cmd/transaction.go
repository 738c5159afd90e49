package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
)

var txCmd = &cobra.Command{
	Use:     "tx <hash>",
	Aliases: []string{"transaction"},
	Short:   "Show a transaction with its inputs and outputs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "transaction", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.Transaction(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(txCmd)
}
