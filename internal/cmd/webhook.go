package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/core"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhooks and their event subscriptions",
}

var webhookListPaging, webhookEventsPaging *pageFlags

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhooks registered for the API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.list", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, webhookListPaging, c.AllWebhooks)
		})
	},
}

var webhookGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Show a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.get", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.Webhook(ctx, args[0])
		})
	},
}

var webhookCreateCmd = &cobra.Command{
	Use:   "create <url> [identifier]",
	Short: "Register a webhook; the server picks an identifier when none is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier := ""
		if len(args) > 1 {
			identifier = args[1]
		}
		return runWithClient(cmd, "webhook.create", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.SetupWebhook(ctx, args[0], identifier)
		})
	},
}

var (
	webhookUpdateURL        string
	webhookUpdateIdentifier string
)

var webhookUpdateCmd = &cobra.Command{
	Use:   "update <identifier>",
	Short: "Change the url and/or identifier of a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if webhookUpdateURL == "" && webhookUpdateIdentifier == "" {
			return errors.New("nothing to update: pass --url and/or --identifier")
		}
		return runWithClient(cmd, "webhook.update", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.UpdateWebhook(ctx, args[0], webhookUpdateURL, webhookUpdateIdentifier)
		})
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete <identifier>",
	Short: "Delete a webhook and its subscriptions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.delete", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return c.DeleteWebhook(ctx, args[0])
		})
	},
}

var webhookEventsCmd = &cobra.Command{
	Use:   "events <identifier>",
	Short: "List the event subscriptions of a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(cmd, "webhook.events", func(ctx context.Context, c *blocktrail.Client) (any, error) {
			return fetchPages(cmd, webhookEventsPaging, func(ctx context.Context, opts blocktrail.PageOptions) (*core.Page[core.WebhookEvent], error) {
				return c.WebhookEvents(ctx, args[0], opts)
			})
		})
	},
}

func init() {
	webhookListPaging = addPageFlags(webhookListCmd, false)
	webhookEventsPaging = addPageFlags(webhookEventsCmd, false)

	webhookUpdateCmd.Flags().StringVar(&webhookUpdateURL, "url", "", "new webhook url")
	webhookUpdateCmd.Flags().StringVar(&webhookUpdateIdentifier, "identifier", "", "new webhook identifier")

	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookGetCmd)
	webhookCmd.AddCommand(webhookCreateCmd)
	webhookCmd.AddCommand(webhookUpdateCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
	webhookCmd.AddCommand(webhookEventsCmd)
	webhookCmd.AddCommand(webhookSubscribeCmd)
	webhookCmd.AddCommand(webhookUnsubscribeCmd)
	rootCmd.AddCommand(webhookCmd)
}
