package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 0.6, cfg.Search.LexicalWeight)
	assert.Equal(t, 25, cfg.Search.TopK)
	assert.Equal(t, "l2", cfg.Index.Metric)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
upstream:
  url: https://api.example.com/messages
search:
  lexical_weight: 0.4
  top_k: 10
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurora.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/messages", cfg.Upstream.URL)
	assert.Equal(t, 0.4, cfg.Search.LexicalWeight)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestLoad_ExpansionFalseSurvivesMerge(t *testing.T) {
	dir := t.TempDir()
	yaml := `
search:
  expansion: false
  top_k: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurora.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Search.TopK)
	assert.False(t, cfg.Search.ExpansionEnabled(),
		"expansion: false in aurora.yaml should disable expansion")

	// Unset keeps the default on.
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Search.ExpansionEnabled())
}

func TestLoad_ExpansionEnvOverride(t *testing.T) {
	t.Setenv("AURORA_EXPANSION", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Search.ExpansionEnabled())
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurora.yaml"), []byte(yaml), 0o644))
	t.Setenv("AURORA_PORT", "7070")
	t.Setenv("AURORA_SYNTHESIS_API_KEY", "sk-test")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Synthesis.APIKey)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aurora.yaml"), []byte("{{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"lexical weight above one", func(c *Config) { c.Search.LexicalWeight = 1.5 }},
		{"negative lexical weight", func(c *Config) { c.Search.LexicalWeight = -0.1 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"dense candidates below top_k", func(c *Config) { c.Search.DenseCandidates = c.Search.TopK - 1 }},
		{"unknown metric", func(c *Config) { c.Index.Metric = "dot" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Upstream.URL = "https://api.example.com/messages"
	cfg.Search.TopK = 30
	cfg.Search.DenseCandidates = 60
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/messages", loaded.Upstream.URL)
	assert.Equal(t, 30, loaded.Search.TopK)
}
