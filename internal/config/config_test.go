package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
fps: 60
workers: 8
llm:
  provider: local
  base_url: http://localhost:1234/v1
`), ".yml")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "local", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLM.BaseURL)
	// untouched fields keep their defaults
	assert.Equal(t, 5.0, cfg.TotalDuration)
	assert.Equal(t, 3, cfg.LLM.Retries)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(`
duration = 2.5
width = 320
height = 240

[llm]
model = "claude-sonnet-4-5"
retries = 5
`), ".toml")
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.TotalDuration)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.LLM.Retries)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte(`{}`), ".json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse([]byte("fps: 0\n"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("[llm]\nprovider = \"other\"\n"), ".toml")
	assert.Error(t, err)

	_, err = Parse([]byte("colour = \"red\"\n"), ".toml")
	assert.Error(t, err, "unknown toml keys are rejected")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "motionpath.yaml")
	require.NoError(t, os.WriteFile(p, []byte("show_stats: true\n"), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.True(t, cfg.ShowStats)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
