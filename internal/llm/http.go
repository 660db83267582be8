package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const minRequestSpacing = 100 * time.Millisecond

// APIError is a non-retryable HTTP failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, body)
}

// transport posts JSON with client-side spacing and retries on transport
// errors, 429 and 5xx.
type transport struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

func newTransport(cfg ProviderConfig) *transport {
	return &transport{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoffBase,
	}
}

func (t *transport) space() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elapsed := time.Since(t.lastRequest); elapsed < minRequestSpacing {
		time.Sleep(minRequestSpacing - elapsed)
	}
	t.lastRequest = time.Now()
}

func (t *transport) postJSON(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for i := 0; i <= t.maxRetries; i++ {
		if i > 0 {
			delay := t.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry aborted: %w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(delay):
			}
		}
		t.space()

		body, status, err := t.do(ctx, url, headers, data)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limit exceeded (429)")
		case status >= 500:
			lastErr = &APIError{StatusCode: status, Body: string(body)}
		default:
			return nil, &APIError{StatusCode: status, Body: string(body)}
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (t *transport) do(ctx context.Context, url string, headers map[string]string, data []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
