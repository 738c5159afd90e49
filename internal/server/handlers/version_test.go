package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getVersion(t *testing.T) VersionResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestVersionHandlerIncludesBuildMetadata(t *testing.T) {
	SetVersionInfo("1.2.3", "abcd123", "2026-10-01T12:00:00Z")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	resp := getVersion(t)
	assert.Equal(t, "blocktrail", resp.App.Name)
	assert.Equal(t, "1.2.3", resp.App.Version)
	assert.Equal(t, "abcd123", resp.App.Commit)
	assert.NotEmpty(t, resp.Dependencies.Gofulmen)
	assert.NotEmpty(t, resp.Dependencies.Crucible)
	assert.NotEmpty(t, resp.Runtime.Platform)
	assert.Nil(t, resp.Upstream)
}

func TestVersionHandlerReportsUpstream(t *testing.T) {
	SetUpstreamInfo(&UpstreamInfo{
		Endpoint:    "https://api.blocktrail.com/v1/BTC",
		Quota:       300,
		Window:      "1m0s",
		RateBackend: "redis",
	})
	t.Cleanup(func() { SetUpstreamInfo(nil) })

	resp := getVersion(t)
	require.NotNil(t, resp.Upstream)
	assert.Equal(t, "https://api.blocktrail.com/v1/BTC", resp.Upstream.Endpoint)
	assert.Equal(t, 300, resp.Upstream.Quota)
	assert.Equal(t, "redis", resp.Upstream.RateBackend)
	assert.False(t, resp.Upstream.Cache)
}
