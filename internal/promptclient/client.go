// Package promptclient submits prompts to a completion endpoint and decodes the streamed answer.
package promptclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docprompt/internal/wire"
)

// DefaultFallback is reported as the answer when the request fails outright.
const DefaultFallback = "Sorry, I am not sure how to answer that."

// Options tune a single prompt submission.
type Options struct {
	Model            string
	PromptTemplate   string
	IDontKnowMessage string
	// ProviderKey is forwarded so the server bills the caller's own provider account.
	ProviderKey string
}

// Client talks to a completion endpoint.
type Client struct {
	Endpoint string
	client   *http.Client
}

// NewClient creates a Client posting to endpoint, e.g. "http://localhost:8080/api/v1/completions".
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Endpoint: endpoint, client: httpClient}
}

type submitRequest struct {
	Prompt           string `json:"prompt"`
	Model            string `json:"model,omitempty"`
	PromptTemplate   string `json:"promptTemplate,omitempty"`
	IDontKnowMessage string `json:"iDontKnowMessage,omitempty"`
	Stream           bool   `json:"stream"`
}

// SubmitPrompt posts prompt and streams the answer into cb. When the request cannot be
// made or is refused, cb.OnAnswerChunk receives the fallback message before cb.OnError.
// The returned error is the one reported to cb.OnError, if any.
func (c *Client) SubmitPrompt(ctx context.Context, prompt string, opts Options, cb Callbacks) error {
	fallback := opts.IDontKnowMessage
	if fallback == "" {
		fallback = DefaultFallback
	}

	fail := func(err error) error {
		if cb.OnAnswerChunk != nil {
			cb.OnAnswerChunk(fallback)
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}

	body, err := json.Marshal(submitRequest{
		Prompt:           prompt,
		Model:            opts.Model,
		PromptTemplate:   opts.PromptTemplate,
		IDontKnowMessage: opts.IDontKnowMessage,
		Stream:           true,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.ProviderKey != "" {
		req.Header.Set(wire.ProviderKeyHeader, opts.ProviderKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to send request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(readError(resp))
	}

	if cb.OnPromptID != nil {
		if data, err := wire.DecodeHeaderData(resp.Header.Get(wire.DataHeader)); err == nil && data.PromptID != "" {
			cb.OnPromptID(data.PromptID)
		}
	}

	dec := NewDecoder(cb)
	if _, err := io.Copy(dec, resp.Body); err != nil {
		err = fmt.Errorf("failed to read stream: %w", err)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}

	return dec.Close()
}

// readError extracts the server's {"error": "..."} message.
func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("completion failed with status %d: %s", resp.StatusCode, body.Error)
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("completion failed with status %d: %s", resp.StatusCode, msg)
}
