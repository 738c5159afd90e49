package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/config"
)

func TestDoctorInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocktrail", "config.yaml")

	_, _, err := executeCommand(t, "--config", path, "doctor", "init", "--key", "init-key")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `api_key: "init-key"`)
	assert.Contains(t, string(data), "backend: memory")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, _, err = executeCommand(t, "--config", path, "doctor", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCommand(t, "--config", path, "doctor", "init", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "init-key")
}

func TestDoctorValidate(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, _, err := executeCommand(t, "--config", cfg, "doctor", "validate")
	require.NoError(t, err)

	cfg = rewriteConfig(t, cfg, "  backend: memory", "  backend: carrier-pigeon")
	_, _, err = executeCommand(t, "--config", cfg, "doctor", "validate")
	require.Error(t, err)
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(err))

	_, _, err = executeCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "doctor", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDoctorPingSpendsOneRequest(t *testing.T) {
	srv, rec := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"USD":"64000.5"}`)
	})
	cfg := writeConfig(t, srv.URL)

	_, _, _ = executeCommand(t, "--config", cfg, "doctor", "--ping")
	assert.Equal(t, 1, rec.count())

	_, _, _ = executeCommand(t, "--config", cfg, "doctor")
	assert.Equal(t, 1, rec.count())
}

func TestDoctorReset(t *testing.T) {
	_, _, err := executeCommand(t, "doctor", "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")

	cfg := writeConfig(t, "http://127.0.0.1:1")
	dbPath := filepath.Join(t.TempDir(), "data.db")
	cfg = rewriteConfig(t, cfg, "store:\n  path: ", "store:\n  path: "+dbPath+"\n  # ")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0o600))

	_, _, err = executeCommand(t, "--config", cfg, "doctor", "reset", "--data")
	require.NoError(t, err)
	assert.NoFileExists(t, dbPath)
	assert.FileExists(t, cfg)

	_, _, err = executeCommand(t, "--config", cfg, "doctor", "reset", "--all")
	require.NoError(t, err)
	assert.NoFileExists(t, cfg)
}

func TestBuildInitConfigWithoutKey(t *testing.T) {
	content := buildInitConfig("")
	assert.Contains(t, content, "# api_key")
	assert.Contains(t, content, "quota: 300")
}

func TestDescribeStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	assert.Contains(t, describeStore(config.StoreConfig{Path: path}), "not created yet")

	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o600))
	assert.Contains(t, describeStore(config.StoreConfig{Path: path}), "2.0 KB")
	assert.Equal(t, "1.5 MB", formatFileSize(3*512*1024))
}
