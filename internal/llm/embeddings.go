package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docprompt/internal/llm Embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docprompt/internal/contextutil"
)

// Embedder produces embeddings for texts.
type Embedder interface {
	// EmbedWithRetry embeds texts, retrying transient failures with exponential backoff.
	EmbedWithRetry(ctx context.Context, texts []string, apiKey string) (*EmbeddingResult, error)
}

// RetryPolicy is an exponential backoff schedule.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

// DefaultRetryPolicy absorbs provider rate limiting: 10 attempts starting at 10s, doubling.
var DefaultRetryPolicy = RetryPolicy{Attempts: 10, InitialDelay: 10 * time.Second}

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation
	Retry        RetryPolicy
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the expected vector size (from QDRANT_VECTOR_SIZE config).
// All embeddings returned by EmbedTexts will be validated against this size.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		Retry:        DefaultRetryPolicy,
		client:       http.DefaultClient,
	}
}

// EmbeddingResult holds one vector per input text and the tokens the call consumed.
type EmbeddingResult struct {
	Vectors [][]float32
	Tokens  int
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}

// EmbedTexts generates embeddings for the given texts in a single call.
// Validates that all returned vectors match the expected size.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string, apiKey string) (*EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	resp, err := postJSON(ctx, c.client, c.BaseURL+"/v1/embeddings", bearer(apiKey, c.APIKey), embeddingsRequest{
		Model: c.Model,
		Input: texts,
	}, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(body.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(body.Data))
	}

	result := &EmbeddingResult{
		Vectors: make([][]float32, len(body.Data)),
		Tokens:  body.Usage.TotalTokens,
	}
	for i, data := range body.Data {
		if c.ExpectedSize > 0 && len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}

		idx := i
		if data.Index >= 0 && data.Index < len(texts) {
			idx = data.Index
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result.Vectors[idx] = vec
	}

	return result, nil
}

// EmbedWithRetry calls EmbedTexts until it succeeds, the error is not retryable,
// the attempts are exhausted, or ctx is done. The delay doubles after every failure.
func (c *EmbeddingsClient) EmbedWithRetry(ctx context.Context, texts []string, apiKey string) (*EmbeddingResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	attempts := c.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := c.Retry.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.EmbedTexts(ctx, texts, apiKey)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "embedding request failed, retrying", "attempt", attempt, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, fmt.Errorf("failed to embed texts: %w", lastErr)
}
