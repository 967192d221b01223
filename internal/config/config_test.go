package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "floating_window", cfg.Hover.Strategy)
	require.Equal(t, []string{"markdown", "plaintext"}, cfg.Hover.PreferredMarkupKind)
	require.Empty(t, cfg.Servers)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
log:
  level: debug
servers:
  rust:
    command: rust-analyzer
    args: ["--stdio"]
    features:
      code_lenses: true
      completion: true
    root_markers: ["Cargo.toml"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "floating_window", cfg.Hover.Strategy)

	rust, ok := cfg.Servers["rust"]
	require.True(t, ok)
	require.Equal(t, "rust-analyzer", rust.Command)
	require.Equal(t, []string{"--stdio"}, rust.Args)
	require.True(t, rust.Features.CodeLenses)
	require.True(t, rust.Features.Completion)
	require.False(t, rust.Features.CodeActions)
	require.Equal(t, []string{"Cargo.toml"}, rust.RootMarkers)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
