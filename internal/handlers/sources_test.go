package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	handler_mocks "docprompt/internal/handlers/mocks"
	"docprompt/internal/indexer"
	"docprompt/internal/service"
	"docprompt/internal/storage"
	storage_mocks "docprompt/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

type sourcesMocks struct {
	store   *storage_mocks.MockSourceStore
	index   *handler_mocks.MockSourceIndex
	trainer *handler_mocks.MockTrainer
}

func newTestSourcesHandler(ctrl *gomock.Controller) (*SourcesHandler, sourcesMocks) {
	m := sourcesMocks{
		store:   storage_mocks.NewMockSourceStore(ctrl),
		index:   handler_mocks.NewMockSourceIndex(ctrl),
		trainer: handler_mocks.NewMockTrainer(ctrl),
	}
	return NewSourcesHandler("p1", m.store, m.index, m.trainer), m
}

// withSourceID attaches the chi route parameter the router would set.
func withSourceID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sourceID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestSourcesHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	m.store.EXPECT().ListByProject(gomock.Any(), "p1").Return([]storage.SourceRecord{
		{ID: "s1", Name: "docs", Type: "github", Config: map[string]any{"repo": "acme/docs"}},
		{ID: "s2", Name: "site", Type: "website"},
	}, nil)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []SourceResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s1" || got[0].Config["repo"] != "acme/docs" || got[1].Type != "website" {
		t.Errorf("sources = %+v", got)
	}
}

func TestSourcesHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockSetup  func(m sourcesMocks)
		wantStatus int
		wantError  string
	}{
		{
			name: "created",
			body: `{"name":" docs ","type":"github","config":{"repo":"acme/docs","exclude":["**/CHANGELOG.md"]}}`,
			mockSetup: func(m sourcesMocks) {
				m.store.EXPECT().Create(gomock.Any(), gomock.Cond(func(src *storage.SourceRecord) bool {
					return src.ProjectID == "p1" && src.Name == "docs" && src.Type == "github"
				})).DoAndReturn(func(_ context.Context, src *storage.SourceRecord) error {
					src.ID = "s1"
					return nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       `{"type":"github"}`,
			mockSetup:  func(m sourcesMocks) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error: name is required",
		},
		{
			name:       "unknown type",
			body:       `{"name":"docs","type":"ftp"}`,
			mockSetup:  func(m sourcesMocks) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error: type must be one of github, website, files, bucket, connector",
		},
		{
			name:       "invalid glob",
			body:       `{"name":"docs","type":"files","config":{"include":["[abc"]}}`,
			mockSetup:  func(m sourcesMocks) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid body",
			body:       `{`,
			mockSetup:  func(m sourcesMocks) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name: "store failure",
			body: `{"name":"docs","type":"website","config":{"url":"https://example.com"}}`,
			mockSetup: func(m sourcesMocks) {
				m.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to create source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h, m := newTestSourcesHandler(ctrl)
			tt.mockSetup(m)

			w := httptest.NewRecorder()
			h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/sources", bytes.NewBufferString(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" {
				var resp ErrorResponse
				_ = json.NewDecoder(w.Body).Decode(&resp)
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
			}
			if tt.wantStatus == http.StatusCreated {
				var resp SourceResponse
				_ = json.NewDecoder(w.Body).Decode(&resp)
				if resp.ID != "s1" || resp.Name != "docs" {
					t.Errorf("source = %+v", resp)
				}
			}
		})
	}
}

func TestSourcesHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	m.store.EXPECT().Get(gomock.Any(), "p1", "missing").Return(nil, storage.ErrNotFound)

	w := httptest.NewRecorder()
	h.Get(w, withSourceID(httptest.NewRequest(http.MethodGet, "/api/v1/sources/missing", nil), "missing"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSourcesHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	gomock.InOrder(
		m.store.EXPECT().Get(gomock.Any(), "p1", "s1").Return(&storage.SourceRecord{ID: "s1"}, nil),
		m.index.EXPECT().DeleteSource(gomock.Any(), "s1").Return(nil),
		m.store.EXPECT().Delete(gomock.Any(), "p1", "s1").Return(nil),
	)

	w := httptest.NewRecorder()
	h.Delete(w, withSourceID(httptest.NewRequest(http.MethodDelete, "/api/v1/sources/s1", nil), "s1"))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestSourcesHandler_Delete_IndexFailureKeepsSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	m.store.EXPECT().Get(gomock.Any(), "p1", "s1").Return(&storage.SourceRecord{ID: "s1"}, nil)
	m.index.EXPECT().DeleteSource(gomock.Any(), "s1").Return(errors.New("qdrant down"))
	// store.Delete must not be called

	w := httptest.NewRecorder()
	h.Delete(w, withSourceID(httptest.NewRequest(http.MethodDelete, "/api/v1/sources/s1", nil), "s1"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSourcesHandler_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	m.store.EXPECT().Get(gomock.Any(), "p1", "s1").Return(&storage.SourceRecord{ID: "s1"}, nil)
	m.index.EXPECT().Stats(gomock.Any(), "s1").Return(&indexer.SourceStats{Files: 3, Sections: 12, ChunkerVersion: indexer.ChunkerVersion}, nil)

	w := httptest.NewRecorder()
	h.Stats(w, withSourceID(httptest.NewRequest(http.MethodGet, "/api/v1/sources/s1/stats", nil), "s1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got indexer.SourceStats
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.Files != 3 || got.Sections != 12 {
		t.Errorf("stats = %+v", got)
	}
}

func TestSourcesHandler_Train(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		mockSetup  func(m sourcesMocks)
		wantStatus int
	}{
		{
			name:  "starts in the background",
			query: "?force=true",
			mockSetup: func(m sourcesMocks) {
				m.trainer.EXPECT().StartSource(gomock.Any(), "s1", true).Return(nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "already running",
			mockSetup: func(m sourcesMocks) {
				m.trainer.EXPECT().StartSource(gomock.Any(), "s1", false).Return(service.ErrConflict)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:  "waits for the result",
			query: "?wait=true",
			mockSetup: func(m sourcesMocks) {
				m.trainer.EXPECT().TrainSource(gomock.Any(), "s1", false).
					Return(&indexer.RunResult{Indexed: 4, Skipped: 1, Errors: []indexer.ItemError{}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "quota exceeded",
			query: "?wait=true",
			mockSetup: func(m sourcesMocks) {
				m.trainer.EXPECT().TrainSource(gomock.Any(), "s1", false).
					Return(nil, &service.QuotaExceededError{SourceID: "s1", Path: "docs/big.md"})
			},
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name: "unknown source",
			mockSetup: func(m sourcesMocks) {
				m.trainer.EXPECT().StartSource(gomock.Any(), "s1", false).Return(service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h, m := newTestSourcesHandler(ctrl)
			tt.mockSetup(m)

			w := httptest.NewRecorder()
			h.Train(w, withSourceID(httptest.NewRequest(http.MethodPost, "/api/v1/sources/s1/train"+tt.query, nil), "s1"))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestSourcesHandler_Train_DetachesFromRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, m := newTestSourcesHandler(ctrl)

	m.trainer.EXPECT().StartSource(gomock.Any(), "s1", false).DoAndReturn(func(ctx context.Context, _ string, _ bool) error {
		if ctx.Done() != nil {
			t.Error("background training context should not be cancellable by the request")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/s1/train", nil).WithContext(ctx)

	w := httptest.NewRecorder()
	h.Train(w, withSourceID(req, "s1"))
}
