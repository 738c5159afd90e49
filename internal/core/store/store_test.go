package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StoreConfig
		want string
	}{
		{
			name: "remote url gets auth token",
			cfg:  config.StoreConfig{URL: "libsql://windows.turso.io", AuthToken: "token123"},
			want: "libsql://windows.turso.io?authToken=token123",
		},
		{
			name: "remote url keeps existing query",
			cfg:  config.StoreConfig{URL: "libsql://windows.turso.io?tls=1", AuthToken: "token123"},
			want: "libsql://windows.turso.io?authToken=token123&tls=1",
		},
		{
			name: "explicit token in url wins",
			cfg:  config.StoreConfig{URL: "libsql://windows.turso.io?authToken=mine", AuthToken: "other"},
			want: "libsql://windows.turso.io?authToken=mine",
		},
		{
			name: "file prefix passes through",
			cfg:  config.StoreConfig{Path: "file:./blocktrail.db"},
			want: "file:./blocktrail.db",
		},
		{
			name: "in-memory",
			cfg:  config.StoreConfig{Path: ":memory:"},
			want: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildLibsqlDSN(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dsn)
		})
	}
}

func TestBuildLibsqlDSNRequiresLocation(t *testing.T) {
	_, err := buildLibsqlDSN(config.StoreConfig{Path: "  "})
	require.Error(t, err)
}

func TestBuildLibsqlDSNCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "blocktrail", "cache.db")

	dsn, err := buildLibsqlDSN(config.StoreConfig{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "file:"+filepath.Clean(path), dsn)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMigrateRejectsNilStore(t *testing.T) {
	var s *Store
	require.Error(t, s.Migrate(context.Background()))
	assert.Empty(t, s.Driver())
	assert.NoError(t, s.Close())
}
