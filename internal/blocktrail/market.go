package blocktrail

import (
	"context"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

func (c *Client) PriceResponse(ctx context.Context) (*restclient.Response, error) {
	return c.cached(ctx, store.CacheKindPrice, "index", func(ctx context.Context) (*restclient.Response, error) {
		return c.get(ctx, "price", "/price", nil)
	}, nil)
}

// Price returns the current price of one coin per currency code.
func (c *Client) Price(ctx context.Context) (core.PriceIndex, error) {
	index, err := decode[core.PriceIndex](c.PriceResponse(ctx))
	if err != nil {
		return nil, err
	}
	return *index, nil
}

// VerifyMessage checks a bitcoin-core style message signature.
func (c *Client) VerifyMessage(ctx context.Context, message, address, signature string) (bool, error) {
	if err := requireValue("message", message); err != nil {
		return false, err
	}
	if err := ValidateAddress(c.network, address); err != nil {
		return false, err
	}
	if err := requireValue("signature", signature); err != nil {
		return false, err
	}
	body := map[string]string{
		"message":   message,
		"address":   address,
		"signature": signature,
	}
	return decodeResult(c.post(ctx, "verify_message", "/verify_message", body, false))
}
