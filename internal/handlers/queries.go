package handlers

import (
	"net/http"
	"strconv"
	"time"

	"docprompt/internal/storage"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// QueriesHandler lists persisted queries for insights.
type QueriesHandler struct {
	projectID string
	store     storage.QueryStore
}

// NewQueriesHandler creates a new QueriesHandler.
func NewQueriesHandler(projectID string, store storage.QueryStore) *QueriesHandler {
	return &QueriesHandler{projectID: projectID, store: store}
}

// QueryResponse is a persisted query.
type QueryResponse struct {
	ID             string    `json:"id"`
	Prompt         *string   `json:"prompt"`
	Response       *string   `json:"response"`
	NoAnswerReason *string   `json:"noAnswerReason,omitempty"`
	References     []string  `json:"references"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ServeHTTP returns the most recent queries, newest first.
func (h *QueriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultQueryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxQueryLimit)
	}

	records, err := h.store.ListRecent(ctx, h.projectID, limit)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to list queries")
		return
	}

	out := make([]QueryResponse, len(records))
	for i, q := range records {
		refs := q.References
		if refs == nil {
			refs = []string{}
		}
		out[i] = QueryResponse{
			ID:             q.ID,
			Prompt:         q.Prompt,
			Response:       q.Response,
			NoAnswerReason: q.NoAnswerReason,
			References:     refs,
			CreatedAt:      q.CreatedAt,
		}
	}
	writeJSON(ctx, w, http.StatusOK, out)
}
