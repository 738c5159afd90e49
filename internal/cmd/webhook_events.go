package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
)

var subscribeConfirmations int

var webhookSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Subscribe a webhook to address, block or transaction events",
}

var webhookSubscribeAddressCmd = &cobra.Command{
	Use:   "address <identifier> <address>...",
	Short: "Notify on transactions involving one or more addresses",
	Long: `Notify on transactions involving one or more addresses.

A single address is subscribed directly. Several addresses are sent as one
batch request.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier, addresses := args[0], args[1:]
		return runWithClient(cmd, "webhook.subscribe.address", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			if len(addresses) == 1 {
				return c.SubscribeAddressTransactions(ctx, identifier, addresses[0], subscribeConfirmations)
			}
			batch := make([]blocktrail.AddressSubscription, 0, len(addresses))
			for _, address := range addresses {
				batch = append(batch, blocktrail.AddressSubscription{
					Address:       address,
					Confirmations: subscribeConfirmations,
				})
			}
			return c.BatchSubscribeAddressTransactions(ctx, identifier, batch)
		})
	},
}

var webhookSubscribeBlocksCmd = &cobra.Command{
	Use:   "blocks <identifier>",
	Short: "Notify on every new block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.subscribe.blocks", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.SubscribeNewBlocks(ctx, args[0])
		})
	},
}

var webhookSubscribeTxCmd = &cobra.Command{
	Use:   "tx <identifier> <hash>",
	Short: "Notify as a transaction gains confirmations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.subscribe.tx", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.SubscribeTransaction(ctx, args[0], args[1], subscribeConfirmations)
		})
	},
}

var webhookUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe",
	Short: "Remove an event subscription from a webhook",
}

var webhookUnsubscribeAddressCmd = &cobra.Command{
	Use:   "address <identifier> <address>",
	Short: "Stop address transaction notifications",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.unsubscribe.address", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.UnsubscribeAddressTransactions(ctx, args[0], args[1])
		})
	},
}

var webhookUnsubscribeBlocksCmd = &cobra.Command{
	Use:   "blocks <identifier>",
	Short: "Stop new block notifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.unsubscribe.blocks", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.UnsubscribeNewBlocks(ctx, args[0])
		})
	},
}

var webhookUnsubscribeTxCmd = &cobra.Command{
	Use:   "tx <identifier> <hash>",
	Short: "Stop transaction notifications",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.unsubscribe.tx", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.UnsubscribeTransaction(ctx, args[0], args[1])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{webhookSubscribeAddressCmd, webhookSubscribeTxCmd} {
		c.Flags().IntVar(&subscribeConfirmations, "confirmations", blocktrail.DefaultConfirmations, "confirmations to notify up to")
	}

	webhookSubscribeCmd.AddCommand(webhookSubscribeAddressCmd)
	webhookSubscribeCmd.AddCommand(webhookSubscribeBlocksCmd)
	webhookSubscribeCmd.AddCommand(webhookSubscribeTxCmd)

	webhookUnsubscribeCmd.AddCommand(webhookUnsubscribeAddressCmd)
	webhookUnsubscribeCmd.AddCommand(webhookUnsubscribeBlocksCmd)
	webhookUnsubscribeCmd.AddCommand(webhookUnsubscribeTxCmd)
}
