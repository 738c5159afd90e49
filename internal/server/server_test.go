package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/config"
	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
	"github.com/blocktrail/blocktrail-go/internal/server/handlers"
	servermw "github.com/blocktrail/blocktrail-go/internal/server/middleware"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{Host: "127.0.0.1", Port: 0}
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(testServerConfig(), Options{Health: handlers.NewHealthManager("test")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Equal(t, body.Error.RequestID, rec.Header().Get(servermw.RequestIDHeader))
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := New(testServerConfig(), Options{Health: handlers.NewHealthManager("test")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/version", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestServerRelaysThroughBlocktrailClient(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/BTC/block/latest", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"height":830000,"hash":"0000000000000000000320283a032748cef8227873ff4872689bf23f1cda83a5"}`))
	}))
	t.Cleanup(upstream.Close)

	client, err := blocktrail.New(config.ClientConfig{
		APIKey:   "test-key",
		Network:  "BTC",
		Endpoint: upstream.URL + "/v1/BTC",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	srv := New(testServerConfig(), Options{
		API:    client,
		Quota:  client.Tracker(),
		Window: time.Minute,
		Health: handlers.NewHealthManager("test"),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/block/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"height":830000`)

	window, err := client.Tracker().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, window.Count)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rate-limit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"used":1`)
}

func TestServerWithoutAPIHasNoV1Routes(t *testing.T) {
	srv := New(testServerConfig(), Options{Health: handlers.NewHealthManager("test")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/price", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerAddr(t *testing.T) {
	srv := New(config.ServerConfig{Host: "localhost", Port: 8080}, Options{})
	assert.Equal(t, "localhost:8080", srv.Addr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
