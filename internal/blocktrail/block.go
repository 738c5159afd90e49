package blocktrail

import (
	"context"
	"encoding/json"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

func (c *Client) AllBlocksResponse(ctx context.Context, opts PageOptions) (*restclient.Response, error) {
	opts, err := c.pageOptions(opts)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "block.all", "/all-blocks", opts.values(true))
}

// AllBlocks lists blocks, oldest first unless opts sorts descending.
func (c *Client) AllBlocks(ctx context.Context, opts PageOptions) (*core.Page[core.Block], error) {
	return decode[core.Page[core.Block]](c.AllBlocksResponse(ctx, opts))
}

func (c *Client) BlockLatestResponse(ctx context.Context) (*restclient.Response, error) {
	return c.get(ctx, "block.latest", "/block/latest", nil)
}

// BlockLatest returns the chain tip.
func (c *Client) BlockLatest(ctx context.Context) (*core.Block, error) {
	return decode[core.Block](c.BlockLatestResponse(ctx))
}

// BlockResponse returns the raw response for a block by hash or height.
// Lookups by hash of non-orphan blocks are cached.
func (c *Client) BlockResponse(ctx context.Context, block string) (*restclient.Response, error) {
	if err := ValidateBlockRef(block); err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) (*restclient.Response, error) {
		return c.get(ctx, "block", "/block/"+segment(block), nil)
	}
	if !isBlockHash(block) {
		return fetch(ctx)
	}
	return c.cached(ctx, store.CacheKindBlock, block, fetch, func(body []byte) bool {
		var b core.Block
		return json.Unmarshal(body, &b) == nil && !b.IsOrphan
	})
}

// Block returns a block by hash or height.
func (c *Client) Block(ctx context.Context, block string) (*core.Block, error) {
	return decode[core.Block](c.BlockResponse(ctx, block))
}

func (c *Client) BlockTransactionsResponse(ctx context.Context, block string, opts PageOptions) (*restclient.Response, error) {
	if err := ValidateBlockRef(block); err != nil {
		return nil, err
	}
	opts, err := c.pageOptions(opts)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "block.transactions", "/block/"+segment(block)+"/transactions", opts.values(true))
}

// BlockTransactions lists the transactions in a block.
func (c *Client) BlockTransactions(ctx context.Context, block string, opts PageOptions) (*core.Page[core.Transaction], error) {
	return decode[core.Page[core.Transaction]](c.BlockTransactionsResponse(ctx, block, opts))
}
