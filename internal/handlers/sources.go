package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"docprompt/internal/contextutil"
	"docprompt/internal/service"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
)

// SourcesHandler manages the content sources of a project.
type SourcesHandler struct {
	projectID string
	store     storage.SourceStore
	index     SourceIndex
	trainer   Trainer
}

// NewSourcesHandler creates a new SourcesHandler.
func NewSourcesHandler(projectID string, store storage.SourceStore, index SourceIndex, trainer Trainer) *SourcesHandler {
	return &SourcesHandler{
		projectID: projectID,
		store:     store,
		index:     index,
		trainer:   trainer,
	}
}

// SourceRequest is the payload registering a source.
type SourceRequest struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// SourceResponse is a registered source.
type SourceResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toSourceResponse(src storage.SourceRecord) SourceResponse {
	return SourceResponse{
		ID:        src.ID,
		Name:      src.Name,
		Type:      src.Type,
		Config:    src.Config,
		CreatedAt: src.CreatedAt,
	}
}

// List returns every source of the project.
func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.store.ListByProject(ctx, h.projectID)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to list sources")
		return
	}

	out := make([]SourceResponse, len(records))
	for i, src := range records {
		out[i] = toSourceResponse(src)
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Create registers a source.
func (h *SourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateSource(req); err != nil {
		writeServiceError(w, ctx, err, "Invalid source")
		return
	}

	src := &storage.SourceRecord{
		ProjectID: h.projectID,
		Type:      req.Type,
		Name:      strings.TrimSpace(req.Name),
		Config:    req.Config,
	}
	if err := h.store.Create(ctx, src); err != nil {
		writeServiceError(w, ctx, err, "Failed to create source")
		return
	}

	logger.InfoContext(ctx, "source created", "source_id", src.ID, "type", src.Type, "name", src.Name)
	writeJSON(ctx, w, http.StatusCreated, toSourceResponse(*src))
}

func validateSource(req SourceRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &service.ValidationError{Field: "name", Message: "is required"}
	}
	if !sources.ValidType(req.Type) {
		return &service.ValidationError{Field: "type", Message: "must be one of github, website, files, bucket, connector"}
	}
	if _, err := sources.NewFilter(req.Config); err != nil {
		return &service.ValidationError{Field: "config", Message: err.Error()}
	}
	return nil
}

// Get returns one source.
func (h *SourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	src, err := h.load(ctx, chi.URLParam(r, "sourceID"))
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to load source")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSourceResponse(*src))
}

// Delete removes a source along with its vectors, files and checksums.
func (h *SourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := chi.URLParam(r, "sourceID")

	if _, err := h.load(ctx, sourceID); err != nil {
		writeServiceError(w, ctx, err, "Failed to load source")
		return
	}
	if err := h.index.DeleteSource(ctx, sourceID); err != nil {
		writeServiceError(w, ctx, err, "Failed to delete indexed content")
		return
	}
	if err := h.store.Delete(ctx, h.projectID, sourceID); err != nil {
		writeServiceError(w, ctx, mapNotFound(err), "Failed to delete source")
		return
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "source deleted", "source_id", sourceID)
	w.WriteHeader(http.StatusNoContent)
}

// Stats reports the indexed files, sections and token distribution of a source.
func (h *SourcesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := chi.URLParam(r, "sourceID")

	if _, err := h.load(ctx, sourceID); err != nil {
		writeServiceError(w, ctx, err, "Failed to load source")
		return
	}
	stats, err := h.index.Stats(ctx, sourceID)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Train indexes one source. It runs in the background and answers 202 unless
// wait=true, in which case the run result is returned.
func (h *SourcesHandler) Train(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceID := chi.URLParam(r, "sourceID")
	force := r.URL.Query().Get("force") == "true"

	if r.URL.Query().Get("wait") == "true" {
		result, err := h.trainer.TrainSource(ctx, sourceID, force)
		if err != nil {
			writeServiceError(w, ctx, err, "Training failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, result)
		return
	}

	if err := h.trainer.StartSource(context.WithoutCancel(ctx), sourceID, force); err != nil {
		writeServiceError(w, ctx, err, "Failed to start training")
		return
	}
	writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "started", "sourceId": sourceID})
}

func (h *SourcesHandler) load(ctx context.Context, sourceID string) (*storage.SourceRecord, error) {
	src, err := h.store.Get(ctx, h.projectID, sourceID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return src, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}
