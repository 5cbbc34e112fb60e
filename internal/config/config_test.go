// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.Ollama.URL)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.Equal(t, 0.7, cfg.Generation.Temperature)
	assert.Equal(t, 2048, cfg.Generation.ContextSize)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 100, cfg.History.MaxConversations)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid backend",
			mutate:  func(c *Config) { c.Backend = "cloud" },
			wantErr: "backend",
		},
		{
			name:    "invalid ollama url",
			mutate:  func(c *Config) { c.Ollama.URL = "not a url" },
			wantErr: "ollama.url",
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.Generation.MaxTokens = 0 },
			wantErr: "generation.max_tokens",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Generation.Temperature = 3.5 },
			wantErr: "generation.temperature",
		},
		{
			name:    "context size too small",
			mutate:  func(c *Config) { c.Generation.ContextSize = 64 },
			wantErr: "generation.context_size",
		},
		{
			name:    "negative gpu layers",
			mutate:  func(c *Config) { c.Llama.GPULayers = -1 },
			wantErr: "llama.gpu_layers",
		},
		{
			name:    "invalid theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: "ui.theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveLoadTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend = BackendOllama
	cfg.Ollama.Model = "llama3.2:3b"
	cfg.Generation.MaxTokens = 1024
	cfg.UI.Theme = "dark"

	require.NoError(t, SaveTOML(cfg, path))

	// Saved with restrictive permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := Default()
	require.NoError(t, LoadTOML(loaded, path))
	assert.Equal(t, BackendOllama, loaded.Backend)
	assert.Equal(t, "llama3.2:3b", loaded.Ollama.Model)
	assert.Equal(t, 1024, loaded.Generation.MaxTokens)
	assert.Equal(t, "dark", loaded.UI.Theme)
}

func TestSaveLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Llama.BinaryPath = "/usr/local/bin/llama-cli"
	require.NoError(t, SaveJSON(cfg, path))

	loaded := Default()
	require.NoError(t, LoadJSON(loaded, path))
	assert.Equal(t, "/usr/local/bin/llama-cli", loaded.Llama.BinaryPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEMAI_BACKEND", "ollama")
	t.Setenv("MEMAI_OLLAMA_URL", "http://127.0.0.1:9999")
	t.Setenv("MEMAI_OLLAMA_MODEL", "qwen2.5:7b")
	t.Setenv("MEMAI_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Ollama.URL)
	assert.Equal(t, "qwen2.5:7b", cfg.Ollama.Model)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestGetSetDotNotation(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("ollama.url")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434", v)

	require.NoError(t, cfg.Set("ui.theme", "dark"))
	assert.Equal(t, "dark", cfg.UI.Theme)

	// String-to-int conversion.
	require.NoError(t, cfg.Set("generation.max_tokens", "2048"))
	assert.Equal(t, 2048, cfg.Generation.MaxTokens)

	// String-to-float conversion.
	require.NoError(t, cfg.Set("generation.temperature", "0.9"))
	assert.Equal(t, 0.9, cfg.Generation.Temperature)

	// String-to-bool conversion.
	require.NoError(t, cfg.Set("history.enabled", "false"))
	assert.False(t, cfg.History.Enabled)

	_, err = cfg.Get("nonexistent.key")
	assert.Error(t, err)

	err = cfg.Set("llama.bogus", "x")
	assert.Error(t, err)
}

func TestGetAllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, "key %s should resolve", key)
	}
}

func TestStringRedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.HuggingFace.APIKey = "hf_secret_token"

	s := cfg.String()
	assert.NotContains(t, s, "hf_secret_token")
	assert.Contains(t, s, "[REDACTED]")

	// Redaction must not mutate the original.
	assert.Equal(t, "hf_secret_token", cfg.HuggingFace.APIKey)
}
