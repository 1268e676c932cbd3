package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "sandstix.yaml", `
convert:
  small: true
  signature_filter: "severity >= 2 && confidence >= 50"
attack:
  catalog_path: /opt/attack/enterprise-attack.json
graph:
  backend: redis
  target: redis://localhost:6379
announce:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Convert.Small)
	require.False(t, cfg.Convert.DisallowCustom)
	require.Equal(t, "severity >= 2 && confidence >= 50", cfg.Convert.SignatureFilter)
	require.Equal(t, "/opt/attack/enterprise-attack.json", cfg.Attack.CatalogPath)
	require.Equal(t, "redis", cfg.Graph.Backend)
	require.Equal(t, "redis://localhost:6379", cfg.Graph.Target)
	require.Equal(t, "nats://localhost:4222", cfg.Announce.URL)
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "sandstix.yml", "graph:\n  backend: bolt\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.Graph.Backend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "sandstix.yaml", "graph:\n  backend: neo5j\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown graph backend")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
