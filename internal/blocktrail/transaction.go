package blocktrail

import (
	"context"
	"encoding/json"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// TransactionResponse returns the raw response for a transaction. Only
// confirmed transactions are cached.
func (c *Client) TransactionResponse(ctx context.Context, hash string) (*restclient.Response, error) {
	if err := ValidateHash("transaction", hash); err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) (*restclient.Response, error) {
		return c.get(ctx, "transaction", "/transaction/"+segment(hash), nil)
	}
	return c.cached(ctx, store.CacheKindTransaction, hash, fetch, func(body []byte) bool {
		var tx core.Transaction
		return json.Unmarshal(body, &tx) == nil && tx.Confirmed()
	})
}

// Transaction returns a transaction with its inputs and outputs.
func (c *Client) Transaction(ctx context.Context, hash string) (*core.Transaction, error) {
	return decode[core.Transaction](c.TransactionResponse(ctx, hash))
}
