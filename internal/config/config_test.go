package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, pk := range providerKeyEnv {
		t.Setenv(pk.env, "")
	}
	t.Setenv("SUPERFILL_LLM_PROVIDER", "")
	t.Setenv("SUPERFILL_LLM_MODEL", "")
	t.Setenv("SUPERFILL_STORE", "")
	t.Setenv("SUPERFILL_THRESHOLD", "")
	t.Setenv("SUPERFILL_DEBUGGER_URL", "")
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.AIEnabled())
}

func TestLoad_ParsesYAML(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "superfill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  auto_fill_threshold: 0.6
  max_records: 10
llm:
  provider: local
  model: llama3.1
  timeout: 5s
logging:
  debug_mode: true
  categories:
    llm: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Engine.AutoFillThreshold)
	assert.Equal(t, 10, cfg.Engine.MaxRecords)
	assert.Equal(t, 200, cfg.Engine.MaxFieldsPerPage, "unset keys keep defaults")
	assert.Equal(t, "local", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.GetLLMTimeout())
	assert.False(t, cfg.Logging.IsCategoryEnabled("llm"))
	assert.True(t, cfg.Logging.IsCategoryEnabled("match"))
	assert.NoError(t, cfg.Validate(), "local provider needs no key")
	assert.True(t, cfg.AIEnabled())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not a map"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSaveRoundTrip(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "superfill.yaml")
	cfg := DefaultConfig()
	cfg.Engine.AutoFillThreshold = 0.7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, loaded.Engine.AutoFillThreshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"threshold above one", func(c *Config) { c.Engine.AutoFillThreshold = 1.2 }, false},
		{"negative threshold", func(c *Config) { c.Engine.AutoFillThreshold = -0.1 }, false},
		{"zero field cap", func(c *Config) { c.Engine.MaxFieldsPerPage = 0 }, false},
		{"zero record cap", func(c *Config) { c.Engine.MaxRecords = 0 }, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "zai"; c.LLM.APIKey = "k" }, false},
		{"provider without key", func(c *Config) { c.LLM.Provider = "openai" }, false},
		{"provider with key", func(c *Config) { c.LLM.Provider = "groq"; c.LLM.APIKey = "k" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "soon"
	cfg.Browser.NavigationTimeoutMs = 0
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetNavigationTimeout())
}
