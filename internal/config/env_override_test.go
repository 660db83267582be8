package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("key sets provider when none configured", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "ant-key", cfg.LLM.APIKey)
		assert.Equal(t, "anthropic", cfg.LLM.Provider)
	})

	t.Run("later keys win", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("explicit provider picks its own key", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GROQ_API_KEY", "groq-key")

		cfg := &Config{LLM: LLMConfig{Provider: "openai"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("configured key is not replaced", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("DEEPSEEK_API_KEY", "env-key")

		cfg := &Config{LLM: LLMConfig{Provider: "deepseek", APIKey: "file-key"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "file-key", cfg.LLM.APIKey)
	})

	t.Run("SUPERFILL_LLM_PROVIDER overrides file", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("SUPERFILL_LLM_PROVIDER", "local")
		t.Setenv("SUPERFILL_LLM_MODEL", "qwen2.5")

		cfg := &Config{LLM: LLMConfig{Provider: "openai"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "local", cfg.LLM.Provider)
		assert.Equal(t, "qwen2.5", cfg.LLM.Model)
		assert.Empty(t, cfg.LLM.APIKey)
	})
}

func TestEnvOverrides_Engine(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SUPERFILL_THRESHOLD", "0.65")
	t.Setenv("SUPERFILL_STORE", "/tmp/records.db")
	t.Setenv("SUPERFILL_DEBUGGER_URL", "ws://127.0.0.1:9222")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, 0.65, cfg.Engine.AutoFillThreshold)
	assert.Equal(t, "/tmp/records.db", cfg.Store.Path)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.Browser.DebuggerURL)

	t.Setenv("SUPERFILL_THRESHOLD", "high")
	cfg = DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, 0.8, cfg.Engine.AutoFillThreshold, "unparseable threshold is ignored")
}
