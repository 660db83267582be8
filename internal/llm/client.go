// Package llm provides provider-tagged language model clients behind one
// Client interface. Each provider variant owns its request building and
// response parsing; NewClient dispatches on the Provider tag.
package llm

import (
	"context"
	"errors"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Provider() Provider
	Model() string
}

// Provider represents an LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGroq      Provider = "groq"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderGemini    Provider = "gemini"
	ProviderLocal     Provider = "local"
)

var (
	ErrNoAPIKey      = errors.New("API key not configured")
	ErrEmptyResponse = errors.New("no completion returned")
	ErrNoJSON        = errors.New("no JSON object found in response")
)

const defaultSystemPrompt = "You are a careful assistant. Respond with JSON only."

// ProviderConfig holds everything needed to build a client.
type ProviderConfig struct {
	Provider   Provider
	APIKey     string
	BaseURL    string // provider default when empty
	Model      string // provider default when empty
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoffBase is the first retry delay; it doubles per attempt.
	RetryBackoffBase time.Duration
}

type providerDefaults struct {
	baseURL string
	model   string
	keyless bool
}

var defaults = map[Provider]providerDefaults{
	ProviderOpenAI:    {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	ProviderAnthropic: {baseURL: "https://api.anthropic.com/v1", model: "claude-3-5-haiku-latest"},
	ProviderGroq:      {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.3-70b-versatile"},
	ProviderDeepSeek:  {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
	ProviderGemini:    {model: "gemini-2.0-flash"},
	ProviderLocal:     {baseURL: "http://localhost:11434/v1", model: "llama3.1", keyless: true},
}

// withDefaults fills empty fields from the provider table.
func (c ProviderConfig) withDefaults() ProviderConfig {
	d := defaults[c.Provider]
	if c.BaseURL == "" {
		c.BaseURL = d.baseURL
	}
	if c.Model == "" {
		c.Model = d.model
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = time.Second
	}
	return c
}

// withDeadline applies timeout when ctx has none.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
