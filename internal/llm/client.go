package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is a client for an OpenAI-compatible completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// endpoint returns the URL and payload for the request's model family.
func (c *Client) endpoint(req CompletionRequest, stream bool) (string, any, Family) {
	model := req.Model
	if model == "" {
		model = c.Model
	}

	family := FamilyOf(model)
	if family == FamilyLegacy {
		return c.BaseURL + "/v1/completions", legacyRequest{
			Model:            model,
			Prompt:           req.Prompt,
			Temperature:      req.Temperature,
			TopP:             req.TopP,
			FrequencyPenalty: req.FrequencyPenalty,
			PresencePenalty:  req.PresencePenalty,
			MaxTokens:        req.MaxTokens,
			Stream:           stream,
			N:                1,
		}, family
	}

	return c.BaseURL + "/v1/chat/completions", chatRequest{
		Model:            model,
		Messages:         []Message{{Role: "user", Content: req.Prompt}},
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		MaxTokens:        req.MaxTokens,
		Stream:           stream,
		N:                1,
	}, family
}

// Complete sends a non-streaming completion request.
// apiKey, when set, is used instead of the client's key.
func (c *Client) Complete(ctx context.Context, req CompletionRequest, apiKey string) (*CompletionResponse, error) {
	url, payload, family := c.endpoint(req, false)

	resp, err := postJSON(ctx, c.client, url, bearer(apiKey, c.APIKey), payload, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(body.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	text := body.Choices[0].Message.Content
	if family == FamilyLegacy {
		text = body.Choices[0].Text
	}

	return &CompletionResponse{
		ID:    body.ID,
		Model: body.Model,
		Text:  text,
		Usage: body.Usage,
	}, nil
}

// Stream sends a streaming completion request and returns the raw event-stream body.
// A non-2xx answer is returned as *APIError before any byte is read.
func (c *Client) Stream(ctx context.Context, req CompletionRequest, apiKey string) (io.ReadCloser, Family, error) {
	url, payload, family := c.endpoint(req, true)

	resp, err := postJSON(ctx, c.client, url, bearer(apiKey, c.APIKey), payload, true)
	if err != nil {
		return nil, family, err
	}

	return resp.Body, family, nil
}

// ReadStream decodes Server-Sent Events from r and calls fn with every text fragment.
// It stops at [DONE], on a finish_reason, at EOF, or when fn returns an error.
func ReadStream(r io.Reader, family Family, fn func(fragment string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	const dataPrefix = "data:"
	const doneMarker = "[DONE]"

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if data == doneMarker {
			break
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Skip malformed JSON chunks
			continue
		}
		if len(event.Choices) == 0 {
			continue
		}

		choice := event.Choices[0]
		fragment := choice.Delta.Content
		if family == FamilyLegacy {
			fragment = choice.Text
		}

		if fragment != "" {
			if err := fn(fragment); err != nil {
				return err
			}
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}

	return nil
}
