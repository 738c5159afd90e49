package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSigner struct {
	calls int
}

func (s *recordingSigner) Sign(req *http.Request, body []byte) error {
	s.calls++
	req.Header.Set("Authorization", "Signature test")
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	options := Options{
		Endpoint:   server.URL + "/v1/BTC",
		APIKey:     "key123",
		HTTPClient: server.Client(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := New(options)
	require.NoError(t, err)
	return client
}

func TestBuildEndpoint(t *testing.T) {
	require.Equal(t, "https://api.blocktrail.com/v1/BTC", BuildEndpoint("btc", false, "v1"))
	require.Equal(t, "https://api.blocktrail.com/v1/tBTC", BuildEndpoint("BTC", true, ""))
	require.Equal(t, "https://api.blocktrail.com/v2/LTC", BuildEndpoint(" ltc ", false, "v2"))
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)

	_, err = New(Options{Endpoint: "not a url"})
	require.Error(t, err)
}

func TestGetSendsParamsAndAPIKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/BTC/address/1abc/transactions", r.URL.Path)
		assert.Equal(t, "key123", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[],"current_page":2}`))
	})

	resp, err := client.Get(context.Background(), "/address/1abc/transactions", url.Values{"page": {"2"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, resp.Decode(&body))
	require.EqualValues(t, 2, body["current_page"])
}

func TestPostEncodesBodyAndSigns(t *testing.T) {
	signer := &recordingSigner{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Signature test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var payload map[string]string
		assert.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "https://example.com/hook", payload["url"])

		_, _ = w.Write([]byte(`{"url":"https://example.com/hook","identifier":"abc"}`))
	}, func(o *Options) { o.Signer = signer })

	_, err := client.Post(context.Background(), "/webhook", map[string]string{"url": "https://example.com/hook"}, true)
	require.NoError(t, err)
	require.Equal(t, 1, signer.calls)

	_, err = client.Get(context.Background(), "/price", nil)
	require.NoError(t, err)
	require.Equal(t, 1, signer.calls, "unauthenticated calls are not signed")
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		body      string
		kind      Kind
		retryable bool
	}{
		{http.StatusBadRequest, `{"msg":"bad page"}`, KindInvalidFormat, false},
		{http.StatusUnauthorized, `{"msg":"bad key"}`, KindInvalidCredentials, false},
		{http.StatusNotFound, `{"msg":"not found"}`, KindNotFound, false},
		{http.StatusNotFound, `Endpoint Not Found`, KindMissingEndpoint, false},
		{http.StatusTooManyRequests, `{"msg":"slow down"}`, KindThrottled, true},
		{http.StatusInternalServerError, `oops`, KindServer, true},
		{http.StatusBadGateway, `gateway`, KindGenericHTTP, true},
		{http.StatusServiceUnavailable, ``, KindGenericHTTP, true},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})

		_, err := client.Get(context.Background(), "/block/latest", nil)
		require.Error(t, err)

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, tc.kind, apiErr.Kind, "status %d", tc.status)
		require.Equal(t, tc.status, apiErr.StatusCode)
		require.Equal(t, tc.retryable, apiErr.Retryable())
	}
}

func TestErrorMessageFromBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"Transaction not found","code":404}`))
	})

	_, err := client.Get(context.Background(), "/transaction/ff", nil)
	require.True(t, IsNotFound(err))
	require.Contains(t, err.Error(), "Transaction not found")
}

func TestThrottledCarriesRetryAfter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Get(context.Background(), "/price", nil)
	require.True(t, IsThrottled(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 12*time.Second, apiErr.RetryAfter)
}

func TestConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, err := New(Options{Endpoint: endpoint})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/price", nil)
	require.Equal(t, KindConnection, KindOf(err))
}

func TestCancelledContextIsNotConnectionFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/price", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Kind(""), KindOf(err))
}

func TestDecodeFailureKind(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte("not json")}
	var v map[string]any
	err := resp.Decode(&v)
	require.Equal(t, KindDecode, KindOf(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.False(t, apiErr.Retryable())
}
