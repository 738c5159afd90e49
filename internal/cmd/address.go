package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/core"
)

// runWithClient opens a session, runs fn and writes its result.
func runWithClient(cmd *cobra.Command, name string, fn func(ctx context.Context, c *blocktrail.Client) (any, error)) error {
	ctx := cmd.Context()
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := fn(ctx, s.client)
	if err != nil {
		return err
	}
	return writeResult(cmd, name, result)
}

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Show balances and counters for an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "address", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.Address(ctx, args[0])
		})
	},
}

var addressTxsPaging, addressUnconfirmedPaging, addressUTXOsPaging *pageFlags

var addressTxsCmd = &cobra.Command{
	Use:     "txs <address>",
	Aliases: []string{"transactions"},
	Short:   "List confirmed transactions for an address",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "address.transactions", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, addressTxsPaging, func(ctx context.Context, opts blocktrail.PageOptions) (*core.Page[core.Transaction], error) {
				return c.AddressTransactions(ctx, args[0], opts)
			})
		})
	},
}

var addressUnconfirmedCmd = &cobra.Command{
	Use:   "unconfirmed <address>",
	Short: "List unconfirmed transactions for an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "address.unconfirmed", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, addressUnconfirmedPaging, func(ctx context.Context, opts blocktrail.PageOptions) (*core.Page[core.Transaction], error) {
				return c.AddressUnconfirmedTransactions(ctx, args[0], opts)
			})
		})
	},
}

var addressUTXOsCmd = &cobra.Command{
	Use:     "utxos <address>",
	Aliases: []string{"unspent-outputs"},
	Short:   "List unspent outputs for an address",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "address.utxos", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, addressUTXOsPaging, func(ctx context.Context, opts blocktrail.PageOptions) (*core.Page[core.UnspentOutput], error) {
				return c.AddressUnspentOutputs(ctx, args[0], opts)
			})
		})
	},
}

var addressVerifyCmd = &cobra.Command{
	Use:   "verify <address> <signature>",
	Short: "Verify ownership of an address by a signature of the address itself",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "address.verify", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.VerifyAddress(ctx, args[0], args[1])
		})
	},
}

func init() {
	addressTxsPaging = addPageFlags(addressTxsCmd, true)
	addressUnconfirmedPaging = addPageFlags(addressUnconfirmedCmd, true)
	addressUTXOsPaging = addPageFlags(addressUTXOsCmd, true)

	addressCmd.AddCommand(addressTxsCmd)
	addressCmd.AddCommand(addressUnconfirmedCmd)
	addressCmd.AddCommand(addressUTXOsCmd)
	addressCmd.AddCommand(addressVerifyCmd)
	rootCmd.AddCommand(addressCmd)
}
