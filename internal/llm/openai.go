package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweta-tw/superfill.ai/internal/logging"
)

// OpenAIMessage is one chat message.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponseFormat requests structured output.
type OpenAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// OpenAIRequest is a chat completions request body.
type OpenAIRequest struct {
	Model          string                `json:"model"`
	Messages       []OpenAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponse is a chat completions response body.
type OpenAIResponse struct {
	Choices []struct {
		Message OpenAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIClient speaks the chat completions protocol. OpenAI, Groq, DeepSeek
// and local Ollama servers share it; only the base URL, default model and
// key requirement differ.
type OpenAIClient struct {
	provider Provider
	apiKey   string
	baseURL  string
	model    string
	keyless  bool
	timeout  time.Duration
	t        *transport
}

// NewOpenAIClient creates a chat completions client for cfg.Provider.
func NewOpenAIClient(cfg ProviderConfig) *OpenAIClient {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	cfg = cfg.withDefaults()
	return &OpenAIClient{
		provider: cfg.Provider,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		keyless:  defaults[cfg.Provider].keyless,
		timeout:  cfg.Timeout,
		t:        newTransport(cfg),
	}
}

func (c *OpenAIClient) Provider() Provider { return c.provider }
func (c *OpenAIClient) Model() string      { return c.model }

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	logging.LLMDebug("[%s] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.provider, c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" && !c.keyless {
		logging.LLMError("[%s] CompleteWithSystem: API key not configured", c.provider)
		return "", ErrNoAPIKey
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	reqBody := OpenAIRequest{
		Model: c.model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:      4096,
		Temperature:    0.1,
		ResponseFormat: &OpenAIResponseFormat{Type: "json_object"},
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	body, err := c.t.postJSON(ctx, c.baseURL+"/chat/completions", headers, reqBody)
	if err != nil {
		logging.LLMError("[%s] CompleteWithSystem: failed after %v: %v", c.provider, time.Since(startTime), err)
		return "", err
	}

	var resp OpenAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	logging.LLM("[%s] CompleteWithSystem: completed in %v response_len=%d", c.provider, time.Since(startTime), len(response))
	return response, nil
}
