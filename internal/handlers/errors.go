package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"docprompt/internal/contextutil"
	"docprompt/internal/service"
	"docprompt/internal/wire"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeServiceError maps service errors to status codes and human readable messages.
// Completion errors carrying references keep them in the data header.
func writeServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	status := service.HTTPStatus(err)

	var apiErr *service.APIError
	var validationErr *service.ValidationError
	var quotaErr *service.QuotaExceededError

	message := defaultMsg
	switch {
	case errors.As(err, &apiErr):
		message = apiErr.Message
		if apiErr.HeaderData != "" {
			w.Header().Set(wire.DataHeader, apiErr.HeaderData)
		}
	case errors.As(err, &validationErr):
		message = "Validation error: " + validationErr.Field + " " + validationErr.Message
	case errors.As(err, &quotaErr):
		message = quotaErr.Error()
	case errors.Is(err, service.ErrInvalidInput):
		message = "Invalid input"
	case errors.Is(err, service.ErrNotFound):
		message = "Resource not found"
	case errors.Is(err, service.ErrConflict):
		message = "A training run is already in progress"
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err)
	} else {
		logger.WarnContext(ctx, "request failed", "status", status, "error", err)
	}
	writeError(w, status, message)
}
