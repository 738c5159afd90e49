package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/config"
	"github.com/blocktrail/blocktrail-go/internal/server/handlers"
)

func TestRegisterHealthChecksWithoutOptionalBackends(t *testing.T) {
	client, err := blocktrail.New(config.ClientConfig{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	hm := handlers.NewHealthManager("test")
	registerHealthChecks(hm, &session{client: client}, false)

	rr := httptest.NewRecorder()
	hm.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"rate_window": "healthy"}, body.Checks)
}

func TestTelemetryCheckerFailsWithoutExporter(t *testing.T) {
	client, err := blocktrail.New(config.ClientConfig{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	hm := handlers.NewHealthManager("test")
	registerHealthChecks(hm, &session{client: client}, true)

	rr := httptest.NewRecorder()
	hm.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
