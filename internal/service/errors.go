package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation collides with one already running.
	ErrConflict = errors.New("conflict")

	// ErrModerationRejected marks a prompt flagged by moderation.
	ErrModerationRejected = errors.New("flagged content")
	// ErrEmbeddingFailure marks a prompt that could not be embedded after retries.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrRetrievalEmpty marks a prompt with no matching sections.
	ErrRetrievalEmpty = errors.New("no relevant sections")
	// ErrProviderError marks a non-2xx answer from the model provider.
	ErrProviderError = errors.New("provider error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// APIError is a client-facing completion failure with a human readable message.
// HeaderData, when set, is the encoded references header to attach to the response.
type APIError struct {
	Status     int
	Message    string
	HeaderData string
	Err        error
}

// NewAPIError creates an APIError classified by kind, one of the Err* sentinels.
func NewAPIError(status int, message string, kind error) *APIError {
	return &APIError{Status: status, Message: message, Err: kind}
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// QuotaExceededError aborts an ingestion run when the training token quota is spent.
// It is reported apart from per-item errors.
type QuotaExceededError struct {
	SourceID string
	Path     string
	Err      error
}

func (e *QuotaExceededError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training quota exceeded while indexing %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("training quota exceeded while indexing %s", e.Path)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	var apiErr *APIError
	var quotaErr *QuotaExceededError
	var validationErr *ValidationError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.As(err, &quotaErr):
		return http.StatusPaymentRequired
	case errors.As(err, &validationErr), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
