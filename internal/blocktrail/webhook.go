package blocktrail

import (
	"context"
	"fmt"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

// DefaultConfirmations is the confirmation count subscriptions notify up to.
const DefaultConfirmations = 6

type webhookRequest struct {
	URL        string `json:"url,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

type eventRequest struct {
	EventType     string `json:"event_type"`
	Address       string `json:"address,omitempty"`
	Transaction   string `json:"transaction,omitempty"`
	Confirmations *int   `json:"confirmations,omitempty"`
}

// AddressSubscription is one entry of a batch address subscription.
type AddressSubscription struct {
	Address       string `json:"address"`
	Confirmations int    `json:"confirmations"`
}

// AllWebhooks lists the webhooks registered for the API key.
func (c *Client) AllWebhooks(ctx context.Context, opts PageOptions) (*core.Page[core.Webhook], error) {
	opts, err := c.pageOptions(opts)
	if err != nil {
		return nil, err
	}
	return decode[core.Page[core.Webhook]](c.get(ctx, "webhook.list", "/webhooks", opts.values(false)))
}

func (c *Client) Webhook(ctx context.Context, identifier string) (*core.Webhook, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	return decode[core.Webhook](c.get(ctx, "webhook.get", "/webhook/"+segment(identifier), nil))
}

// SetupWebhook registers url. An empty identifier lets the server pick one.
func (c *Client) SetupWebhook(ctx context.Context, url, identifier string) (*core.Webhook, error) {
	if err := requireValue("url", url); err != nil {
		return nil, err
	}
	body := webhookRequest{URL: url, Identifier: identifier}
	return decode[core.Webhook](c.post(ctx, "webhook.create", "/webhook", body, true))
}

// UpdateWebhook changes the url and/or identifier of a webhook. Empty values
// are left unchanged.
func (c *Client) UpdateWebhook(ctx context.Context, identifier, newURL, newIdentifier string) (*core.Webhook, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	if newURL == "" && newIdentifier == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	body := webhookRequest{URL: newURL, Identifier: newIdentifier}
	return decode[core.Webhook](c.put(ctx, "webhook.update", "/webhook/"+segment(identifier), body, true))
}

// DeleteWebhook removes a webhook and all its subscriptions.
func (c *Client) DeleteWebhook(ctx context.Context, identifier string) (bool, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return false, err
	}
	return decodeResult(c.delete(ctx, "webhook.delete", "/webhook/"+segment(identifier), true))
}

// WebhookEvents lists the subscriptions of a webhook.
func (c *Client) WebhookEvents(ctx context.Context, identifier string, opts PageOptions) (*core.Page[core.WebhookEvent], error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	opts, err := c.pageOptions(opts)
	if err != nil {
		return nil, err
	}
	return decode[core.Page[core.WebhookEvent]](c.get(ctx, "webhook.events", "/webhook/"+segment(identifier)+"/events", opts.values(false)))
}

// SubscribeAddressTransactions notifies the webhook of transactions on address
// until they reach confirmations.
func (c *Client) SubscribeAddressTransactions(ctx context.Context, identifier, address string, confirmations int) (*core.WebhookEvent, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	if err := ValidateAddress(c.network, address); err != nil {
		return nil, err
	}
	body := eventRequest{EventType: core.EventAddressTransactions, Address: address, Confirmations: &confirmations}
	return c.subscribe(ctx, "webhook.subscribe.address", identifier, body)
}

// BatchSubscribeAddressTransactions subscribes many addresses in one request.
func (c *Client) BatchSubscribeAddressTransactions(ctx context.Context, identifier string, batch []AddressSubscription) (bool, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return false, err
	}
	if len(batch) == 0 {
		return false, fmt.Errorf("%w: batch is empty", ErrInvalidInput)
	}

	body := make([]eventRequest, 0, len(batch))
	for _, entry := range batch {
		if err := ValidateAddress(c.network, entry.Address); err != nil {
			return false, err
		}
		confirmations := entry.Confirmations
		body = append(body, eventRequest{
			EventType:     core.EventAddressTransactions,
			Address:       entry.Address,
			Confirmations: &confirmations,
		})
	}
	return decodeResult(c.post(ctx, "webhook.subscribe.batch", "/webhook/"+segment(identifier)+"/events/batch", body, true))
}

// SubscribeNewBlocks notifies the webhook of every new block.
func (c *Client) SubscribeNewBlocks(ctx context.Context, identifier string) (*core.WebhookEvent, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	return c.subscribe(ctx, "webhook.subscribe.block", identifier, eventRequest{EventType: core.EventBlock})
}

// SubscribeTransaction notifies the webhook about one transaction until it
// reaches confirmations.
func (c *Client) SubscribeTransaction(ctx context.Context, identifier, transaction string, confirmations int) (*core.WebhookEvent, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return nil, err
	}
	if err := ValidateHash("transaction", transaction); err != nil {
		return nil, err
	}
	body := eventRequest{EventType: core.EventTransaction, Transaction: transaction, Confirmations: &confirmations}
	return c.subscribe(ctx, "webhook.subscribe.transaction", identifier, body)
}

func (c *Client) UnsubscribeAddressTransactions(ctx context.Context, identifier, address string) (bool, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return false, err
	}
	if err := requireValue("address", address); err != nil {
		return false, err
	}
	path := "/webhook/" + segment(identifier) + "/address-transactions/" + segment(address)
	return decodeResult(c.delete(ctx, "webhook.unsubscribe.address", path, true))
}

func (c *Client) UnsubscribeNewBlocks(ctx context.Context, identifier string) (bool, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return false, err
	}
	return decodeResult(c.delete(ctx, "webhook.unsubscribe.block", "/webhook/"+segment(identifier)+"/block", true))
}

func (c *Client) UnsubscribeTransaction(ctx context.Context, identifier, transaction string) (bool, error) {
	if err := requireValue("identifier", identifier); err != nil {
		return false, err
	}
	if err := requireValue("transaction", transaction); err != nil {
		return false, err
	}
	path := "/webhook/" + segment(identifier) + "/transaction/" + segment(transaction)
	return decodeResult(c.delete(ctx, "webhook.unsubscribe.transaction", path, true))
}

func (c *Client) subscribe(ctx context.Context, label, identifier string, body eventRequest) (*core.WebhookEvent, error) {
	return decode[core.WebhookEvent](c.post(ctx, label, "/webhook/"+segment(identifier)+"/events", body, true))
}
