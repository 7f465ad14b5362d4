package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	handler_mocks "docprompt/internal/handlers/mocks"
	"docprompt/internal/rag"
	"docprompt/internal/service"
	"docprompt/internal/wire"

	"go.uber.org/mock/gomock"
)

func TestNewCompletionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := handler_mocks.NewMockCompletionEngine(ctrl)

	handler := NewCompletionHandler(engine, true)
	if handler == nil {
		t.Fatal("NewCompletionHandler() returned nil")
	}
	if handler.engine != engine || !handler.firstParty {
		t.Error("NewCompletionHandler() fields not set correctly")
	}
}

func TestCompletionHandler_Complete(t *testing.T) {
	header, _ := wire.EncodeHeaderData(wire.HeaderData{References: []string{"docs/a.md"}, PromptID: "q-1"})
	stream := false

	tests := []struct {
		name       string
		method     string
		body       any
		firstParty bool
		mockSetup  func(*handler_mocks.MockCompletionEngine)
		wantStatus int
		wantError  string
		wantHeader bool
	}{
		{
			name:       "answered",
			method:     http.MethodPost,
			body:       rag.Request{Prompt: "What is X?", Stream: &stream},
			firstParty: true,
			mockSetup: func(m *handler_mocks.MockCompletionEngine) {
				m.EXPECT().Complete(gomock.Any(), gomock.Cond(func(req rag.Request) bool {
					return req.Prompt == "What is X?" && req.FirstParty && req.APIKey == "sk-caller"
				})).Return(&rag.Completion{
					Text:       "X is a tool.",
					References: []rag.Reference{{Path: "docs/a.md"}},
					ResponseID: "cmpl-1",
					HeaderData: header,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantHeader: true,
		},
		{
			name:   "no sections",
			method: http.MethodPost,
			body:   rag.Request{Prompt: "What is X?", Stream: &stream},
			mockSetup: func(m *handler_mocks.MockCompletionEngine) {
				m.EXPECT().Complete(gomock.Any(), gomock.Any()).
					Return(nil, service.NewAPIError(http.StatusBadRequest, "No relevant sections found", service.ErrRetrievalEmpty))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No relevant sections found",
		},
		{
			name:   "provider error keeps the header",
			method: http.MethodPost,
			body:   rag.Request{Prompt: "What is X?", Stream: &stream},
			mockSetup: func(m *handler_mocks.MockCompletionEngine) {
				m.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(nil, &service.APIError{
					Status: http.StatusBadRequest, Message: "Rate limit reached", HeaderData: header, Err: service.ErrProviderError,
				})
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Rate limit reached",
			wantHeader: true,
		},
		{
			name:   "missing prompt",
			method: http.MethodPost,
			body:   rag.Request{Stream: &stream},
			mockSetup: func(m *handler_mocks.MockCompletionEngine) {
				m.EXPECT().Complete(gomock.Any(), gomock.Any()).
					Return(nil, &service.ValidationError{Field: "prompt", Message: "is required"})
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error: prompt is required",
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "not json",
			mockSetup:  func(m *handler_mocks.MockCompletionEngine) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *handler_mocks.MockCompletionEngine) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := handler_mocks.NewMockCompletionEngine(ctrl)
			tt.mockSetup(engine)

			var body []byte
			switch b := tt.body.(type) {
			case string:
				body = []byte(b)
			case nil:
			default:
				body, _ = json.Marshal(b)
			}

			req := httptest.NewRequest(tt.method, "/api/v1/completions", bytes.NewReader(body))
			req.Header.Set(ProviderKeyHeader, "sk-caller")
			w := httptest.NewRecorder()

			NewCompletionHandler(engine, tt.firstParty).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := w.Header().Get(wire.DataHeader) != ""; got != tt.wantHeader {
				t.Errorf("data header present = %v, want %v", got, tt.wantHeader)
			}
			if tt.wantError != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode error: %v", err)
				}
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
				return
			}
			if tt.wantStatus == http.StatusOK {
				var resp rag.Completion
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode completion: %v", err)
				}
				if resp.Text != "X is a tool." || resp.ResponseID != "cmpl-1" || len(resp.References) != 1 {
					t.Errorf("completion = %+v", resp)
				}
			}
		})
	}
}

func TestCompletionHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := handler_mocks.NewMockCompletionEngine(ctrl)

	header, _ := wire.EncodeHeaderData(wire.HeaderData{References: []string{"docs/a.md"}, PromptID: "q-1"})
	prefix, _ := wire.StreamPrefix([]string{"docs/a.md"})

	engine.EXPECT().Stream(gomock.Any(), gomock.Cond(func(req rag.Request) bool {
		return req.Prompt == "What is X?" && !req.FirstParty
	})).DoAndReturn(func(_ context.Context, _ rag.Request) (*rag.Stream, error) {
		chunks := make(chan rag.Chunk, 3)
		chunks <- rag.Chunk{Data: prefix}
		chunks <- rag.Chunk{Data: []byte("Hello")}
		chunks <- rag.Chunk{Data: []byte(" world")}
		close(chunks)
		return &rag.Stream{PromptID: "q-1", HeaderData: header, Chunks: chunks}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/completions", bytes.NewBufferString(`{"prompt":"What is X?"}`))
	w := httptest.NewRecorder()

	NewCompletionHandler(engine, false).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(wire.DataHeader) != header {
		t.Errorf("data header = %q, want %q", w.Header().Get(wire.DataHeader), header)
	}
	want := `["docs/a.md"]` + wire.Separator + "Hello world"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
	if !w.Flushed {
		t.Error("stream should be flushed")
	}
}

func TestCompletionHandler_StreamErrorStopsBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := handler_mocks.NewMockCompletionEngine(ctrl)

	chunks := make(chan rag.Chunk, 3)
	chunks <- rag.Chunk{Data: []byte("[]" + wire.Separator)}
	chunks <- rag.Chunk{Err: errors.New("connection reset")}
	chunks <- rag.Chunk{Data: []byte("never")}
	close(chunks)
	engine.EXPECT().Stream(gomock.Any(), gomock.Any()).Return(&rag.Stream{Chunks: chunks}, nil)

	req := httptest.NewRequest(http.MethodPost, "/internal/v1/completions", bytes.NewBufferString(`{"prompt":"Q?"}`))
	w := httptest.NewRecorder()

	NewCompletionHandler(engine, true).ServeHTTP(w, req)

	if w.Body.String() != "[]"+wire.Separator {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestCompletionHandler_StreamRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := handler_mocks.NewMockCompletionEngine(ctrl)
	engine.EXPECT().Stream(gomock.Any(), gomock.Any()).
		Return(nil, service.NewAPIError(http.StatusBadRequest, "Flagged content", service.ErrModerationRejected))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/completions", bytes.NewBufferString(`{"prompt":"bad"}`))
	w := httptest.NewRecorder()

	NewCompletionHandler(engine, false).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error != "Flagged content" {
		t.Errorf("error = %q, want Flagged content", resp.Error)
	}
}
