package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/config"
)

const genesisAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

// upstream records the requests a fake Blocktrail API receives.
type upstream struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (u *upstream) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests = append(u.requests, r)
	u.bodies = append(u.bodies, string(body))
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *upstream) {
	t.Helper()
	rec := &upstream{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// writeConfig writes a config file pointing the client at endpoint.
func writeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`client:
  endpoint: %s
  api_key: test-key
cache:
  enabled: false
store:
  path: %s
rate_limit:
  backend: memory
  server_sleep: 1ms
  throttle_sleep: 1ms
  transport_sleep: 1ms
metrics:
  enabled: false
`, endpoint, filepath.Join(t.TempDir(), "blocktrail.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestAddressCommandRendersJSON(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/address/"+genesisAddress, r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		writeJSON(w, http.StatusOK, `{"address":"`+genesisAddress+`","balance":5000,"transactions":2}`)
	})
	cfg := writeConfig(t, srv.URL)

	stdout, _, err := executeCommand(t, "--config", cfg, "-o", "json", "address", genesisAddress)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, genesisAddress, got["address"])
	assert.EqualValues(t, 5000, got["balance"])
	assert.Equal(t, 1, rec.count())
}

func TestAddressCommandRejectsInvalidAddressWithoutCalling(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	cfg := writeConfig(t, srv.URL)

	_, _, err := executeCommand(t, "--config", cfg, "address", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(err))
}

func TestAddressTransactionsAllWalksPages(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, fmt.Sprintf(
			`{"data":[{"hash":"tx-%s"}],"current_page":%s,"per_page":1,"total":2}`, page, page))
	})
	cfg := writeConfig(t, srv.URL)

	stdout, _, err := executeCommand(t, "--config", cfg, "-o", "json",
		"address", "txs", genesisAddress, "--limit", "1", "--all")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "tx-1", got[0]["hash"])
	assert.Equal(t, "tx-2", got[1]["hash"])
	assert.Equal(t, 2, rec.count())
}

func TestBlockLatestRendersYAML(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/block/latest", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"hash":"000000abc","height":840000}`)
	})
	cfg := writeConfig(t, srv.URL)

	stdout, _, err := executeCommand(t, "--config", cfg, "-o", "yaml", "block", "latest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hash: 000000abc")
	assert.Contains(t, stdout, "height: 840000")
}

func TestBatchSubscribeForSeveralAddresses(t *testing.T) {
	other := "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/webhook/hook-1/events/batch", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"result":true}`)
	})
	cfg := writeConfig(t, srv.URL)

	_, _, err := executeCommand(t, "--config", cfg, "-o", "json",
		"webhook", "subscribe", "address", "hook-1", genesisAddress, other, "--confirmations", "3")
	require.NoError(t, err)
	require.Equal(t, 1, rec.count())

	var batch []map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.bodies[0]), &batch))
	require.Len(t, batch, 2)
	assert.Equal(t, other, batch[1]["address"])
	assert.EqualValues(t, 3, batch[1]["confirmations"])
}

func TestWebhookUpdateRequiresChange(t *testing.T) {
	_, _, err := executeCommand(t, "webhook", "update", "hook-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestServerFaultExhaustsRetries(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"msg":"boom"}`)
	})
	cfg := writeConfig(t, srv.URL)
	cfg = rewriteConfig(t, cfg, "  backend: memory", "  backend: memory\n  max_retries: 2")

	_, _, err := executeCommand(t, "--config", cfg, "price")
	require.Error(t, err)
	assert.Equal(t, 3, rec.count())
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(err))
}

func TestInvalidConfigMapsToConfigExit(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	cfg := writeConfig(t, srv.URL)
	cfg = rewriteConfig(t, cfg, "  backend: memory", "  backend: memory\n  quota: -1")

	_, _, err := executeCommand(t, "--config", cfg, "price")
	require.Error(t, err)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(err))
}

func TestOutFlagWritesFile(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"USD":"64000.5"}`)
	})
	cfg := writeConfig(t, srv.URL)
	out := filepath.Join(t.TempDir(), "nested", "price.json")

	stdout, _, err := executeCommand(t, "--config", cfg, "-o", "json", "--out", out, "price")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "64000.5")
}

func TestDestructiveCommandsRequireConfirmation(t *testing.T) {
	_, _, err := executeCommand(t, "rate-limit", "reset", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	_, _, err = executeCommand(t, "cache", "purge", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	_, _, err = executeCommand(t, "cache", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-10-15")
	t.Cleanup(func() { SetVersionInfo("", "", "") })

	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, config.AppName+" 1.2.3\n", stdout)

	stdout, _, err = executeCommand(t, "version", "--extended")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Commit: abc123")
	assert.Contains(t, stdout, "Gofulmen:")
	assert.Contains(t, stdout, "Crucible:")
}

func TestWindowScope(t *testing.T) {
	scope := windowScope(config.ClientConfig{Network: "btc", APIKey: "secret-key"})
	assert.True(t, strings.HasPrefix(scope, "BTC:"))
	assert.NotContains(t, scope, "secret-key")
	assert.Equal(t, scope, windowScope(config.ClientConfig{Network: "BTC", APIKey: " secret-key "}))

	assert.Equal(t, "tBTC:anonymous", windowScope(config.ClientConfig{Network: "BTC", Testnet: true}))
	assert.NotEqual(t, scope, windowScope(config.ClientConfig{Network: "BTC", APIKey: "other-key"}))
}

func rewriteConfig(t *testing.T, path, old, replacement string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	updated := strings.Replace(string(data), old, replacement, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	return path
}
