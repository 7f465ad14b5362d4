package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "message",
				Message: "cannot be empty",
			},
			want: "validation error on field message: cannot be empty",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "nil error",
			err:     nil,
			msg:     "context",
			wantNil: true,
		},
		{
			name:    "wrapped error",
			err:     errors.New("original error"),
			msg:     "context",
			wantNil: false,
			wantMsg: "context: original error",
		},
		{
			name:    "empty message",
			err:     errors.New("original error"),
			msg:     "",
			wantNil: false,
			wantMsg: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Errorf("WrapError() = nil, want error")
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got.Error(), tt.wantMsg)
			}
			// Verify error wrapping
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, "Flagged content", ErrModerationRejected)

	if err.Error() != "Flagged content" {
		t.Errorf("Error() = %v, want Flagged content", err.Error())
	}
	if !errors.Is(err, ErrModerationRejected) {
		t.Error("APIError should match its kind with errors.Is")
	}

	wrapped := fmt.Errorf("completion failed: %w", err)
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %v, want 400", apiErr.Status)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"api error", NewAPIError(http.StatusBadRequest, "No relevant sections found", ErrRetrievalEmpty), http.StatusBadRequest},
		{"quota exceeded", fmt.Errorf("run: %w", &QuotaExceededError{Path: "a.md"}), http.StatusPaymentRequired},
		{"validation", &ValidationError{Field: "prompt", Message: "cannot be empty"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("source: %w", ErrNotFound), http.StatusNotFound},
		{"conflict", ErrConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuotaExceededError(t *testing.T) {
	cause := errors.New("insufficient_quota")
	err := &QuotaExceededError{SourceID: "s1", Path: "docs/a.md", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("QuotaExceededError should unwrap to its cause")
	}
	want := "training quota exceeded while indexing docs/a.md: insufficient_quota"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}
