package handlers

import (
	"encoding/json"
	"net/http"

	"docprompt/internal/contextutil"
	"docprompt/internal/rag"
	"docprompt/internal/wire"
)

// ProviderKeyHeader carries a caller-supplied model provider key.
const ProviderKeyHeader = wire.ProviderKeyHeader

// CompletionHandler handles completion requests.
type CompletionHandler struct {
	engine     CompletionEngine
	firstParty bool
}

// NewCompletionHandler creates a CompletionHandler. firstParty marks the route
// used by the system's own frontend.
func NewCompletionHandler(engine CompletionEngine, firstParty bool) *CompletionHandler {
	return &CompletionHandler{
		engine:     engine,
		firstParty: firstParty,
	}
}

// ServeHTTP answers a prompt.
//
// swagger:route POST /api/v1/completions completions
//
// # Answer a prompt from the indexed documentation
//
// Streams `JSON(referencePaths) + separator + answer text` by default. With
// `"stream": false` the answer is a single JSON object. Both forms carry the
// X-Docprompt-Data header.
//
// ---
// consumes:
// - application/json
// responses:
//
//	'200':
//	  description: Answer
//	'400':
//	  description: Invalid prompt, flagged content, no sections, or provider error
func (h *CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req rag.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.FirstParty = h.firstParty
	req.APIKey = r.Header.Get(ProviderKeyHeader)

	if !req.WantsStream() {
		completion, err := h.engine.Complete(ctx, req)
		if err != nil {
			writeServiceError(w, ctx, err, "Failed to complete prompt")
			return
		}
		w.Header().Set(wire.DataHeader, completion.HeaderData)
		writeJSON(ctx, w, http.StatusOK, completion)
		return
	}

	stream, err := h.engine.Stream(ctx, req)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to complete prompt")
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(wire.DataHeader, stream.HeaderData)
	w.WriteHeader(http.StatusOK)

	for chunk := range stream.Chunks {
		if chunk.Err != nil {
			logger.ErrorContext(ctx, "completion stream failed", "prompt_id", stream.PromptID, "error", chunk.Err)
			break
		}
		if _, err := w.Write(chunk.Data); err != nil {
			logger.WarnContext(ctx, "client went away", "prompt_id", stream.PromptID, "error", err)
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
