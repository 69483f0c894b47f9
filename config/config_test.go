package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "lmflux.yaml", `
provider: anthropic
model: claude-test
temperature: 0.2
max_tokens: 256
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-test", cfg.Model)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, 256, cfg.MaxTokens)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "lmflux.yaml", "model: from-file\n")
	t.Setenv("LMFLUX_MODEL", "from-env")
	t.Setenv("OPENAI_API_BASE", "http://localhost:8080/v1")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
	assert.Equal(t, "sk-test", cfg.APIKey)

	t.Setenv("LMFLUX_API_KEY", "sk-lmflux")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-lmflux", cfg.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "lmflux.yaml", "provider: carrier-pigeon\ntemperature: 3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "carrier-pigeon"`)
	assert.Contains(t, err.Error(), "temperature")
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default().Model, cfg.Model)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.Options()
	assert.Equal(t, map[string]string{"temperature": "0.7"}, opts.Map())

	cfg.MaxTokens = 100
	n, ok := cfg.Options().Int("max_tokens")
	require.True(t, ok)
	assert.EqualValues(t, 100, n)
}

func TestYAML_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-secret"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "****")
	assert.NotContains(t, out, "sk-secret")
	assert.Equal(t, "sk-secret", cfg.APIKey)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Model = "saved-model"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved-model", got.Model)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "LMFLUX_DOTENV_PROBE=loaded\n")
	t.Cleanup(func() { _ = os.Unsetenv("LMFLUX_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("LMFLUX_DOTENV_PROBE"))

	require.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
