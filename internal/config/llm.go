package config

import "time"

// LLMConfig configures the language model behind the AI matcher.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // openai, anthropic, groq, deepseek, gemini, local
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// GetLLMTimeout returns the per-request model timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
