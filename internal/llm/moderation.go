package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ModerationClient classifies input against the provider's content policy.
type ModerationClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewModerationClient creates a new moderation client.
func NewModerationClient(baseURL, apiKey string) *ModerationClient {
	return &ModerationClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  http.DefaultClient,
	}
}

// Moderate reports whether any moderation result flags the input.
func (c *ModerationClient) Moderate(ctx context.Context, input, apiKey string) (bool, error) {
	resp, err := postJSON(ctx, c.client, c.BaseURL+"/v1/moderations", bearer(apiKey, c.APIKey), map[string]string{
		"input": input,
	}, false)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body struct {
		Results []struct {
			Flagged bool `json:"flagged"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, r := range body.Results {
		if r.Flagged {
			return true, nil
		}
	}
	return false, nil
}
