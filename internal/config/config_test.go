package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scardb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/scardb
cache:
  page_capacity: 128
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/scardb", cfg.DataDir)
	require.Equal(t, 128, cfg.Cache.PageCapacity)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, 64, cfg.Cache.PageCapacity)
	require.Equal(t, "info", cfg.Log.Level)
}
