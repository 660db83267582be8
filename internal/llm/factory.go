package llm

import (
	"fmt"

	"github.com/sweta-tw/superfill.ai/internal/config"
	"github.com/sweta-tw/superfill.ai/internal/logging"
)

// NewClient builds the client variant for cfg.Provider.
func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderGroq, ProviderDeepSeek, ProviderLocal:
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.Provider)
	}
}

// FromConfig builds a client from the llm section of cfg. It returns nil and
// no error when no provider is configured.
func FromConfig(cfg *config.Config) (Client, error) {
	if cfg == nil || cfg.LLM.Provider == "" {
		return nil, nil
	}
	pc := ProviderConfig{
		Provider:   Provider(cfg.LLM.Provider),
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.GetLLMTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
	}
	client, err := NewClient(pc)
	if err != nil {
		return nil, err
	}
	logging.LLM("Using %s model %s", client.Provider(), client.Model())
	return client, nil
}
