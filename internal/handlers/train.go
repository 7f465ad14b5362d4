package handlers

import (
	"context"
	"net/http"

	"docprompt/internal/contextutil"
)

// TrainHandler starts, cancels and reports project-wide training.
type TrainHandler struct {
	trainer Trainer
}

// NewTrainHandler creates a new TrainHandler.
func NewTrainHandler(trainer Trainer) *TrainHandler {
	return &TrainHandler{trainer: trainer}
}

// Start trains every source in the background.
func (h *TrainHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	force := r.URL.Query().Get("force") == "true"

	if err := h.trainer.StartAllSources(context.WithoutCancel(ctx), force); err != nil {
		writeServiceError(w, ctx, err, "Failed to start training")
		return
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "training started", "force", force)
	writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Cancel requests the running training to stop before its next item.
func (h *TrainHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cancelled := h.trainer.Cancel()
	writeJSON(ctx, w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// State reports the training state.
func (h *TrainHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, h.trainer.State())
}
