package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docprompt/internal/contextutil"
	"docprompt/internal/storage"
)

// ConnectorSyncer asks the connector service to sync a third-party connection.
// Connector sources are not iterated locally. Source config: "connectionId", "integrationId".
type ConnectorSyncer struct {
	URL    string
	client *http.Client
}

// NewConnectorSyncer creates a ConnectorSyncer posting to syncURL.
func NewConnectorSyncer(syncURL string) *ConnectorSyncer {
	return &ConnectorSyncer{
		URL:    syncURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type syncRequest struct {
	SourceID      string `json:"sourceId"`
	ConnectionID  string `json:"connectionId"`
	IntegrationID string `json:"integrationId"`
}

// Sync triggers a remote sync of src.
func (s *ConnectorSyncer) Sync(ctx context.Context, src storage.SourceRecord) error {
	logger := contextutil.LoggerFromContext(ctx)

	if s.URL == "" {
		return fmt.Errorf("connector sync url is not configured")
	}

	payload := syncRequest{
		SourceID:      src.ID,
		ConnectionID:  configString(src.Config, "connectionId"),
		IntegrationID: configString(src.Config, "integrationId"),
	}
	if payload.ConnectionID == "" || payload.IntegrationID == "" {
		return fmt.Errorf("connector source %s needs connectionId and integrationId", src.Name)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sync request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sync request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	logger.InfoContext(ctx, "connector sync requested", "source_id", src.ID, "integration_id", payload.IntegrationID)
	return nil
}
