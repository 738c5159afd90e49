package blocktrail

import (
	"context"
	"net/http"
	"time"

	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/core/engine"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

type settings struct {
	httpClient  *http.Client
	signer      restclient.Signer
	logger      Logger
	tracker     *engine.Tracker
	windowStore engine.WindowStore
	rateLimit   *config.RateLimitConfig
	policy      *engine.RetryPolicy
	observer    engine.Observer
	clock       func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	cache       ResponseCache
	cacheTTL    config.CacheConfig
}

func defaultSettings() settings {
	return settings{}
}

// Option customises a Client.
type Option func(*settings)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) { s.httpClient = client }
}

// WithSigner authenticates requests that modify account state.
func WithSigner(signer restclient.Signer) Option {
	return func(s *settings) { s.signer = signer }
}

func WithLogger(logger Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTracker shares an existing tracker, and so its quota, with this client.
func WithTracker(tracker *engine.Tracker) Option {
	return func(s *settings) { s.tracker = tracker }
}

// WithWindowStore keeps the request window outside process memory.
func WithWindowStore(store engine.WindowStore) Option {
	return func(s *settings) { s.windowStore = store }
}

// WithRateLimit applies quota and retry settings.
func WithRateLimit(rl config.RateLimitConfig) Option {
	return func(s *settings) { s.rateLimit = &rl }
}

func WithRetryPolicy(policy engine.RetryPolicy) Option {
	return func(s *settings) { s.policy = &policy }
}

// WithObserver receives every dispatch attempt.
func WithObserver(observer engine.Observer) Option {
	return func(s *settings) { s.observer = observer }
}

func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *settings) { s.sleep = sleep }
}

// WithCache stores immutable responses in cache using the TTLs in cfg.
func WithCache(cache ResponseCache, cfg config.CacheConfig) Option {
	return func(s *settings) {
		s.cache = cache
		s.cacheTTL = cfg
	}
}
