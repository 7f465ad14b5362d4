package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fakeCollections struct {
	exists bool
	err    error
}

func (f fakeCollections) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		db         fakePinger
		vectors    fakeCollections
		wantStatus int
		wantHealth string
		wantIssues []string
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			vectors:    fakeCollections{exists: true},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "collection missing",
			method:     http.MethodGet,
			vectors:    fakeCollections{exists: false},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantIssues: []string{"vector_store_unavailable"},
		},
		{
			name:       "everything down",
			method:     http.MethodGet,
			db:         fakePinger{err: errors.New("database is locked")},
			vectors:    fakeCollections{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantIssues: []string{"database_unavailable", "vector_store_unavailable"},
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db, tt.vectors, "sections")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantHealth == "" {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if len(resp.Issues) != len(tt.wantIssues) {
				t.Fatalf("issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			for i := range resp.Issues {
				if resp.Issues[i] != tt.wantIssues[i] {
					t.Errorf("issue %d = %q, want %q", i, resp.Issues[i], tt.wantIssues[i])
				}
			}
		})
	}
}
