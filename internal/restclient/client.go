// Package restclient issues requests against the Blocktrail REST API and
// classifies failures into error kinds the dispatcher can act on.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultHost is the public API host used when no endpoint override is set.
const DefaultHost = "https://api.blocktrail.com"

// Signer authenticates requests flagged with auth=true.
type Signer interface {
	Sign(req *http.Request, body []byte) error
}

// Logger is the subset of the application logger the client writes to.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	APIKey     string
	Signer     Signer
	HTTPClient *http.Client
	UserAgent  string
	Debug      bool
	Logger     Logger
}

// Client performs JSON requests against a single API endpoint.
type Client struct {
	endpoint  *url.URL
	apiKey    string
	signer    Signer
	http      *http.Client
	userAgent string
	debug     bool
	logger    Logger
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return &Error{Kind: KindDecode, Message: "nil response"}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Kind: KindDecode, StatusCode: r.StatusCode, Message: "decode response body", Body: r.Body, Err: err}
	}
	return nil
}

// BuildEndpoint returns the versioned endpoint for a network, prefixing the
// network with "t" for testnet.
func BuildEndpoint(network string, testnet bool, apiVersion string) string {
	network = strings.ToUpper(strings.TrimSpace(network))
	if testnet {
		network = "t" + network
	}
	version := strings.TrimSpace(apiVersion)
	if version == "" {
		version = "v1"
	}
	return fmt.Sprintf("%s/%s/%s", DefaultHost, version, network)
}

// New creates a Client for the endpoint in opts.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if raw == "" {
		return nil, errors.New("api endpoint is required")
	}
	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid api endpoint: %q", raw)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "blocktrail-go"
	}

	return &Client{
		endpoint:  endpoint,
		apiKey:    strings.TrimSpace(opts.APIKey),
		signer:    opts.Signer,
		http:      client,
		userAgent: userAgent,
		debug:     opts.Debug,
		logger:    opts.Logger,
	}, nil
}

// Endpoint returns the base URL requests are resolved against.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Get issues a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, params, nil, false)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, auth bool) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, auth)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, auth bool) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, auth)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, auth bool) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, auth)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, auth bool) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target := c.resolve(path, params)

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindInvalidFormat, Method: method, Path: path, Message: "encode request body", Err: err}
		}
		payload = encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindInvalidFormat, Method: method, Path: path, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth && c.signer != nil {
		if err := c.signer.Sign(req, payload); err != nil {
			return nil, &Error{Kind: KindInvalidCredentials, Method: method, Path: path, Message: "sign request", Err: err}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A cancelled or expired context is the caller giving up, not the
		// network failing, so it must not be retried.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindConnection, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindConnection, Method: method, Path: path, StatusCode: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}

	apiErr := &Error{
		Kind:       kindForStatus(resp.StatusCode, strings.TrimSpace(string(data))),
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Message:    errorMessage(data),
		Body:       data,
	}
	if apiErr.Kind == KindThrottled {
		apiErr.RetryAfter = retryAfterHeader(resp)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(apiErr.Kind)),
			zap.ByteString("body", truncate(data, 512)))
	}

	return nil, apiErr
}

func (c *Client) resolve(path string, params url.Values) string {
	u := *c.endpoint
	// path segments arrive already escaped.
	raw := strings.TrimRight(c.endpoint.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		u.Path = unescaped
		u.RawPath = raw
	} else {
		u.Path = raw
		u.RawPath = ""
	}

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func errorMessage(body []byte) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Msg != "" {
			return payload.Msg
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(truncate(body, 200)))
}

func truncate(data []byte, limit int) []byte {
	if len(data) <= limit {
		return data
	}
	return data[:limit]
}
