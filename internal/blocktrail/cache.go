package blocktrail

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/core/store"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// ResponseCache stores raw response bodies. *store.Store satisfies it.
type ResponseCache interface {
	GetCachedResponse(ctx context.Context, kind store.CacheKind, network, key string) (*store.CacheEntry, error)
	SetCachedResponse(ctx context.Context, kind store.CacheKind, network, key string, body []byte, ttl time.Duration) error
}

func (c *Client) ttlFor(kind store.CacheKind) time.Duration {
	if c.cache == nil || !c.cacheTTL.Enabled {
		return 0
	}
	switch kind {
	case store.CacheKindBlock:
		return c.cacheTTL.BlockTTL
	case store.CacheKindTransaction:
		return c.cacheTTL.TransactionTTL
	case store.CacheKindPrice:
		return c.cacheTTL.PriceTTL
	default:
		return 0
	}
}

// cached serves a response from the cache when possible, otherwise fetches it
// and stores the body when keep approves it. Cache failures never fail the call.
func (c *Client) cached(ctx context.Context, kind store.CacheKind, key string, fetch func(ctx context.Context) (*restclient.Response, error), keep func(body []byte) bool) (*restclient.Response, error) {
	ttl := c.ttlFor(kind)
	if ttl <= 0 {
		return fetch(ctx)
	}

	network := c.network.PathSegment()
	entry, err := c.cache.GetCachedResponse(ctx, kind, network, key)
	if err != nil {
		c.warn("Response cache read failed", append(cacheFields(string(kind), key, ttl), zap.Error(err))...)
	} else if entry != nil {
		return &restclient.Response{StatusCode: 200, Body: entry.Body}, nil
	}

	resp, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if keep == nil || keep(resp.Body) {
		if err := c.cache.SetCachedResponse(ctx, kind, network, key, resp.Body, ttl); err != nil {
			c.warn("Response cache write failed", append(cacheFields(string(kind), key, ttl), zap.Error(err))...)
		}
	}
	return resp, nil
}
