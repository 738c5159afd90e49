package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the current price index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "price", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.Price(ctx)
		})
	},
}

var verifyMessageCmd = &cobra.Command{
	Use:   "verify-message <message> <address> <signature>",
	Short: "Verify a message signed by the key owning an address",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "verify-message", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.VerifyMessage(ctx, args[0], args[1], args[2])
		})
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(verifyMessageCmd)
}
