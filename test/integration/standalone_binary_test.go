package integration

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildStandalone builds the CLI and copies it outside the repository.
func buildStandalone(t *testing.T) (binary, workDir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}

	goModPath, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err, "go env GOMOD")
	repoRoot := filepath.Dir(strings.TrimSpace(string(goModPath)))
	require.NotEqual(t, ".", repoRoot, "go env GOMOD returned empty")

	built := filepath.Join(t.TempDir(), "blocktrail")
	build := exec.Command("go", "build", "-o", built, "./cmd/blocktrail")
	build.Dir = repoRoot
	build.Env = os.Environ()
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build: %s", out)

	workDir = t.TempDir()
	binary = filepath.Join(workDir, "blocktrail")
	data, err := os.ReadFile(built)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(binary, data, 0o755))
	return binary, workDir
}

func run(binary, dir string, args ...string) (string, int) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	home := filepath.Join(dir, "home")
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_DATA_HOME="+filepath.Join(home, ".local", "share"),
	)
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	return string(out), 0
}

func TestStandaloneBinaryWorksOutsideRepo(t *testing.T) {
	binary, dir := buildStandalone(t)

	out, code := run(binary, dir, "version")
	require.Equal(t, 0, code, out)
	assert.True(t, strings.HasPrefix(out, "blocktrail "), out)

	out, code = run(binary, dir, "--help")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "rate-limit")
	assert.Contains(t, out, "webhook")

	// Local validation rejects the address before any request is made.
	out, code = run(binary, dir, "--endpoint", "http://127.0.0.1:1", "address", "not-an-address")
	assert.Equal(t, int(foundry.ExitFailure), code, out)

	badConfig := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("rate_limit:\n  quota: 0\n"), 0o600))
	out, code = run(binary, dir, "--config", badConfig, "price")
	assert.Equal(t, int(foundry.ExitConfigInvalid), code, out)
}
