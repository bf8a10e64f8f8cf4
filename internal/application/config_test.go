package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "scrutinium.db", cfg.DatabasePath)
	assert.Equal(t, "gemini", cfg.DefaultProvider)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Zero(t, cfg.RateLimit)
	assert.False(t, cfg.ShowJudgeAnswerDefault)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_PROVIDER", "anthropic")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RATE_LIMIT", "2.5")

	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown provider", "DEFAULT_PROVIDER", "openrouter"},
		{"port out of range", "PORT", "70000"},
		{"timeout too short", "REQUEST_TIMEOUT", "50ms"},
		{"negative retries", "MAX_RETRIES", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  gemini:
    model: gemini-2.0-pro
  ollama:
    model: mistral
    base_url: http://ollama.internal:11434/v1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := &Config{ProvidersFile: path}
	overrides, err := cfg.LoadProviderOverrides()
	require.NoError(t, err)

	require.Len(t, overrides, 2)
	assert.Equal(t, "gemini-2.0-pro", overrides["gemini"].Model)
	assert.Equal(t, "mistral", overrides["ollama"].Model)
	assert.Equal(t, "http://ollama.internal:11434/v1", overrides["ollama"].BaseURL)
}

func TestLoadProviderOverridesMissingFile(t *testing.T) {
	cfg := &Config{ProvidersFile: "/does/not/exist.yaml"}
	_, err := cfg.LoadProviderOverrides()
	assert.Error(t, err)
}

func TestLoadProviderOverridesNoFileConfigured(t *testing.T) {
	cfg := &Config{}
	overrides, err := cfg.LoadProviderOverrides()
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadProviderOverridesRejectsBadURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  gemini:
    base_url: not-a-url
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := &Config{ProvidersFile: path}
	_, err := cfg.LoadProviderOverrides()
	assert.Error(t, err)
}
