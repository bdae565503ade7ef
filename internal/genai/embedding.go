package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/tmuhub/tmu-weekly-bot/internal/ratelimit"
)

const (
	// GeminiEmbeddingModel is the model used for generating embeddings.
	GeminiEmbeddingModel = "gemini-embedding-001"

	// GeminiEmbeddingRateLimit is the requests-per-minute limit for the
	// embedding API free tier.
	GeminiEmbeddingRateLimit = 1000

	geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	embedMaxRetries   = 5
	embedInitialDelay = 2 * time.Second
)

// EmbeddingClient generates embedding vectors using the Gemini API.
// Event records and user questions go through the same client so both
// live in the same vector space.
type EmbeddingClient struct {
	apiKey      string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// NewEmbeddingClient creates a new Gemini embedding client.
func NewEmbeddingClient(apiKey string) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewPerMinute(GeminiEmbeddingRateLimit),
	}
}

type embedRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding vector for the given text.
// Transient failures (429, 5xx, network) retry with Full Jitter backoff.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty or whitespace-only text cannot be embedded")
	}

	var lastErr error
	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, retryable, err := c.embedOnce(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable || attempt == embedMaxRetries {
			break
		}

		delay := CalculateBackoff(attempt+1, embedInitialDelay, 30*time.Second)
		if err := Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embed %q failed: %w", truncate(text, 40), lastErr)
}

// embedOnce performs a single embedContent request.
// Returns (vector, retryable, error).
func (c *EmbeddingClient) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", geminiAPIBaseURL, GeminiEmbeddingModel, c.apiKey)

	body, err := json.Marshal(embedRequest{
		Model: fmt.Sprintf("models/%s", GeminiEmbeddingModel),
		Content: embedContent{
			Parts: []embedPart{{Text: text}},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("HTTP %d from embedding API", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	if out.Error != nil {
		retryable := out.Error.Code == 429 ||
			out.Error.Status == "RESOURCE_EXHAUSTED" ||
			out.Error.Code >= 500
		return nil, retryable, fmt.Errorf("API error %d: %s - %s",
			out.Error.Code, out.Error.Status, out.Error.Message)
	}

	if len(out.Embedding.Values) == 0 {
		return nil, false, fmt.Errorf("empty embedding returned")
	}
	return out.Embedding.Values, false, nil
}

// IsConfigured returns true if the API key is set.
func (c *EmbeddingClient) IsConfigured() bool {
	return c.apiKey != ""
}

// NewEmbeddingFunc creates a chromem-go compatible EmbeddingFunc backed by
// the Gemini embedding API.
func NewEmbeddingFunc(apiKey string) chromem.EmbeddingFunc {
	client := NewEmbeddingClient(apiKey)
	return func(ctx context.Context, text string) ([]float32, error) {
		return client.Embed(ctx, text)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
