package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/sweta-tw/superfill.ai/internal/logging"
)

// GeminiClient implements Client on the Google GenAI SDK. The SDK client is
// created lazily on the first call.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	once    sync.Once
	cli     *genai.Client
	initErr error
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg ProviderConfig) *GeminiClient {
	cfg.Provider = ProviderGemini
	cfg = cfg.withDefaults()
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (c *GeminiClient) Provider() Provider { return ProviderGemini }
func (c *GeminiClient) Model() string      { return c.model }

func (c *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: c.timeout},
		}
		if c.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		c.cli, c.initErr = genai.NewClient(ctx, cc)
		if c.initErr != nil {
			c.initErr = fmt.Errorf("failed to create GenAI client: %w", c.initErr)
		}
	})
	return c.cli, c.initErr
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction and asks for
// a JSON response.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	logging.LLMDebug("[Gemini] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" {
		logging.LLMError("[Gemini] CompleteWithSystem: API key not configured")
		return "", ErrNoAPIKey
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	cli, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	temperature := float32(0.1)
	resp, err := cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			Temperature:       &temperature,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		logging.LLMError("[Gemini] CompleteWithSystem: failed after %v: %v", time.Since(startTime), err)
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	response := strings.TrimSpace(sb.String())
	if response == "" {
		return "", ErrEmptyResponse
	}

	logging.LLM("[Gemini] CompleteWithSystem: completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}
