package blocktrail

import (
	"context"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// AddressResponse returns the raw response for an address summary.
func (c *Client) AddressResponse(ctx context.Context, address string) (*restclient.Response, error) {
	if err := ValidateAddress(c.network, address); err != nil {
		return nil, err
	}
	return c.get(ctx, "address", "/address/"+segment(address), nil)
}

// Address returns balances and counters for an address.
func (c *Client) Address(ctx context.Context, address string) (*core.Address, error) {
	return decode[core.Address](c.AddressResponse(ctx, address))
}

func (c *Client) AddressTransactionsResponse(ctx context.Context, address string, opts PageOptions) (*restclient.Response, error) {
	return c.addressList(ctx, "address.transactions", address, "/transactions", opts)
}

// AddressTransactions lists confirmed transactions involving an address.
func (c *Client) AddressTransactions(ctx context.Context, address string, opts PageOptions) (*core.Page[core.Transaction], error) {
	return decode[core.Page[core.Transaction]](c.AddressTransactionsResponse(ctx, address, opts))
}

func (c *Client) AddressUnconfirmedTransactionsResponse(ctx context.Context, address string, opts PageOptions) (*restclient.Response, error) {
	return c.addressList(ctx, "address.unconfirmed", address, "/unconfirmed-transactions", opts)
}

// AddressUnconfirmedTransactions lists mempool transactions involving an address.
func (c *Client) AddressUnconfirmedTransactions(ctx context.Context, address string, opts PageOptions) (*core.Page[core.Transaction], error) {
	return decode[core.Page[core.Transaction]](c.AddressUnconfirmedTransactionsResponse(ctx, address, opts))
}

func (c *Client) AddressUnspentOutputsResponse(ctx context.Context, address string, opts PageOptions) (*restclient.Response, error) {
	return c.addressList(ctx, "address.utxos", address, "/unspent-outputs", opts)
}

// AddressUnspentOutputs lists unspent outputs owned by an address.
func (c *Client) AddressUnspentOutputs(ctx context.Context, address string, opts PageOptions) (*core.Page[core.UnspentOutput], error) {
	return decode[core.Page[core.UnspentOutput]](c.AddressUnspentOutputsResponse(ctx, address, opts))
}

// VerifyAddress checks that signature was made with the key owning address,
// the message being the address itself.
func (c *Client) VerifyAddress(ctx context.Context, address, signature string) (bool, error) {
	if err := ValidateAddress(c.network, address); err != nil {
		return false, err
	}
	if err := requireValue("signature", signature); err != nil {
		return false, err
	}
	body := map[string]string{"signature": signature}
	return decodeResult(c.post(ctx, "address.verify", "/address/"+segment(address)+"/verify", body, true))
}

func (c *Client) addressList(ctx context.Context, label, address, suffix string, opts PageOptions) (*restclient.Response, error) {
	if err := ValidateAddress(c.network, address); err != nil {
		return nil, err
	}
	opts, err := c.pageOptions(opts)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, label, "/address/"+segment(address)+suffix, opts.values(true))
}
