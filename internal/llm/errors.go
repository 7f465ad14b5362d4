package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status %d", e.StatusCode)
	}
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Message)
}

// IsInsufficientQuota reports whether err is the provider telling the key is out of quota.
func IsInsufficientQuota(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota"
}

// retryable reports whether a failed call may succeed when repeated.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	if IsInsufficientQuota(err) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

// readAPIError builds an APIError from a non-2xx response, keeping the provider's message when present.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
		if code, ok := body.Error.Code.(string); ok {
			apiErr.Code = code
		}
		return apiErr
	}

	apiErr.Message = string(raw)
	return apiErr
}
