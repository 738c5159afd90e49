// Package blocktrail maps Blocktrail API endpoints onto typed methods. Every
// call goes through a rate-limited dispatcher, so callers never see throttling
// or transient server and transport failures.
package blocktrail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/engine"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// Logger is the subset of the application logger used by the client.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// Client is a Blocktrail API client bound to one network.
type Client struct {
	rest       *restclient.Client
	dispatcher *engine.Dispatcher
	network    core.Network
	pageLimit  int
	sortDir    core.SortDir
	cache      ResponseCache
	cacheTTL   config.CacheConfig
	logger     Logger
}

// New builds a client from configuration. Options override the defaults
// derived from cfg.
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	network := core.Network{
		Name:    networkName(cfg.Testnet),
		Code:    strings.ToUpper(strings.TrimSpace(cfg.Network)),
		Testnet: cfg.Testnet,
	}
	if network.Code == "" {
		network.Code = "BTC"
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = restclient.BuildEndpoint(network.Code, network.Testnet, cfg.APIVersion)
	}

	httpClient := settings.httpClient
	if httpClient == nil && cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var restLogger restclient.Logger
	if settings.logger != nil {
		restLogger = settings.logger
	}

	rest, err := restclient.New(restclient.Options{
		Endpoint:   endpoint,
		APIKey:     cfg.APIKey,
		Signer:     settings.signer,
		HTTPClient: httpClient,
		UserAgent:  cfg.UserAgent,
		Debug:      cfg.Debug,
		Logger:     restLogger,
	})
	if err != nil {
		return nil, err
	}

	tracker := settings.tracker
	if tracker == nil {
		tracker = engine.NewTracker(settings.clock)
		if settings.windowStore != nil {
			tracker.Store = settings.windowStore
		}
		if settings.rateLimit != nil {
			applyRateLimit(tracker, *settings.rateLimit)
		}
	}
	if tracker.Sleep == nil {
		tracker.Sleep = settings.sleep
	}
	if tracker.Logger == nil && settings.logger != nil {
		tracker.Logger = settings.logger
	}

	dispatcher := engine.NewDispatcher(tracker)
	if settings.rateLimit != nil {
		dispatcher.Policy = retryPolicy(*settings.rateLimit)
	}
	if settings.policy != nil {
		dispatcher.Policy = *settings.policy
	}
	dispatcher.Sleep = settings.sleep
	dispatcher.Clock = settings.clock
	dispatcher.Observer = settings.observer
	if settings.logger != nil {
		dispatcher.Logger = settings.logger
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	sortDir := core.SortDir(strings.ToLower(strings.TrimSpace(cfg.SortDir)))
	if sortDir == "" {
		sortDir = core.SortAsc
	}

	return &Client{
		rest:       rest,
		dispatcher: dispatcher,
		network:    network,
		pageLimit:  pageLimit,
		sortDir:    sortDir,
		cache:      settings.cache,
		cacheTTL:   settings.cacheTTL,
		logger:     settings.logger,
	}, nil
}

func networkName(testnet bool) string {
	if testnet {
		return "testnet"
	}
	return "mainnet"
}

func applyRateLimit(tracker *engine.Tracker, rl config.RateLimitConfig) {
	if rl.Quota > 0 {
		tracker.Quota = rl.Quota
	}
	if rl.Window > 0 {
		tracker.Window = rl.Window
	}
	if rl.Margin > 0 {
		tracker.Margin = rl.Margin
	}
}

func retryPolicy(rl config.RateLimitConfig) engine.RetryPolicy {
	policy := engine.DefaultRetryPolicy()
	if rl.ThrottleSleep > 0 {
		policy.ThrottleSleep = rl.ThrottleSleep
	}
	if rl.ServerSleep > 0 {
		policy.ServerSleep = rl.ServerSleep
	}
	if rl.TransportSleep > 0 {
		policy.TransportSleep = rl.TransportSleep
	}
	policy.MaxRetries = rl.MaxRetries
	return policy
}

// Network returns the chain this client talks to.
func (c *Client) Network() core.Network {
	return c.network
}

// Endpoint returns the API base URL.
func (c *Client) Endpoint() string {
	return c.rest.Endpoint()
}

// Tracker returns the rate tracker shared by every call on this client.
func (c *Client) Tracker() *engine.Tracker {
	return c.dispatcher.Tracker
}

// Dispatcher returns the dispatcher used for every call on this client.
func (c *Client) Dispatcher() *engine.Dispatcher {
	return c.dispatcher
}

func (c *Client) get(ctx context.Context, label, path string, params url.Values) (*restclient.Response, error) {
	return engine.Execute(ctx, c.dispatcher, label, func(ctx context.Context) (*restclient.Response, error) {
		return c.rest.Get(ctx, path, params)
	})
}

func (c *Client) post(ctx context.Context, label, path string, body any, auth bool) (*restclient.Response, error) {
	return engine.Execute(ctx, c.dispatcher, label, func(ctx context.Context) (*restclient.Response, error) {
		return c.rest.Post(ctx, path, body, auth)
	})
}

func (c *Client) put(ctx context.Context, label, path string, body any, auth bool) (*restclient.Response, error) {
	return engine.Execute(ctx, c.dispatcher, label, func(ctx context.Context) (*restclient.Response, error) {
		return c.rest.Put(ctx, path, body, auth)
	})
}

func (c *Client) delete(ctx context.Context, label, path string, auth bool) (*restclient.Response, error) {
	return engine.Execute(ctx, c.dispatcher, label, func(ctx context.Context) (*restclient.Response, error) {
		return c.rest.Delete(ctx, path, auth)
	})
}

func decode[T any](resp *restclient.Response, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeResult accepts either a bare boolean or {"result": bool}.
func decodeResult(resp *restclient.Response, err error) (bool, error) {
	if err != nil {
		return false, err
	}

	var flag bool
	if json.Unmarshal(resp.Body, &flag) == nil {
		return flag, nil
	}

	var result core.Result
	if err := resp.Decode(&result); err != nil {
		return false, err
	}
	return result.Result, nil
}

func segment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

func (c *Client) warn(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Warn(msg, fields...)
	}
}

func requireValue(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

func cacheFields(kind, key string, ttl time.Duration) []zap.Field {
	return []zap.Field{zap.String("kind", kind), zap.String("key", key), zap.Duration("ttl", ttl)}
}
