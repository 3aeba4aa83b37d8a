package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mdview.toml")
	src := `
flush_delay_ms = 100
viewport_width = 1024
images = false
css = "body { color: red; }"
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.FlushDelayMS)
	assert.Equal(t, 1024, cfg.ViewportWidth)
	assert.False(t, cfg.Images)
	assert.Equal(t, "body { color: red; }", cfg.CSS)

	// Keys the file omits keep their defaults.
	assert.Equal(t, defaultConfig().RetryDelayMS, cfg.RetryDelayMS)
	assert.Equal(t, defaultConfig().ChunkSize, cfg.ChunkSize)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedTOML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("flush_delay_ms = ["), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}
