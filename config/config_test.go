package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Scale)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, ":8080", cfg.ListenAddress)
	assert.Equal(t, "auto", cfg.Print.Mode)
	assert.Equal(t, ".", cfg.SearchDirs[0])
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", `
search_dirs = ["/data/sprites", "~/wan"]
scale = 2
workers = 3

[print]
mode = "24bit"
`)
	local := writeFile(t, dir, "local.toml", `
scale = 4
output_dir = "/tmp/pngs"

[gif]
loop = -1
`)

	cfg, err := Load(base, local)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/sprites", filepath.Join(home, "wan")}, cfg.SearchDirs)
	assert.Equal(t, 4, cfg.Scale)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/tmp/pngs", cfg.OutputDir)
	assert.Equal(t, "24bit", cfg.Print.Mode)
	assert.Equal(t, -1, cfg.GIF.Loop)
}

func TestLoadInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "scale = [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/sprites", filepath.Join(home, "sprites")},
		{"absolute path unchanged", "/usr/share/pmdwan", "/usr/share/pmdwan"},
		{"relative path unchanged", "monster/wan", "monster/wan"},
		{"empty string unchanged", "", ""},
		{"tilde only", "~", home},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "pmdwan.toml", paths[len(paths)-1])
	assert.Equal(t, "config.toml", filepath.Base(paths[0]))
}
