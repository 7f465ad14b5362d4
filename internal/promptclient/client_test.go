package promptclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docprompt/internal/wire"
)

func TestClient_SubmitPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "What is X?" || !req.Stream {
			t.Errorf("request = %+v", req)
		}
		if r.Header.Get(wire.ProviderKeyHeader) != "sk-caller" {
			t.Errorf("%s = %q, want sk-caller", wire.ProviderKeyHeader, r.Header.Get(wire.ProviderKeyHeader))
		}

		header, _ := wire.EncodeHeaderData(wire.HeaderData{References: []string{"docs/a.md"}, PromptID: "q-1"})
		w.Header().Set(wire.DataHeader, header)
		flusher, _ := w.(http.Flusher)

		for _, part := range []string{`["docs/`, `a.md"]___START_RESP`, `ONSE_STREAM___X is`, " Y."} {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer server.Close()

	var answer strings.Builder
	var refs []string
	var promptID string
	var gotErr error

	client := NewClient(server.URL, nil)
	err := client.SubmitPrompt(context.Background(), "What is X?", Options{ProviderKey: "sk-caller"}, Callbacks{
		OnAnswerChunk: func(chunk string) { answer.WriteString(chunk) },
		OnReferences:  func(r []string) { refs = r },
		OnPromptID:    func(id string) { promptID = id },
		OnError:       func(err error) { gotErr = err },
	})
	if err != nil || gotErr != nil {
		t.Fatalf("SubmitPrompt() error = %v, OnError = %v", err, gotErr)
	}
	if answer.String() != "X is Y." {
		t.Errorf("answer = %q, want %q", answer.String(), "X is Y.")
	}
	if len(refs) != 1 || refs[0] != "docs/a.md" {
		t.Errorf("references = %v", refs)
	}
	if promptID != "q-1" {
		t.Errorf("promptID = %q, want q-1", promptID)
	}
}

func TestClient_SubmitPrompt_Failures(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		closed       bool
		opts         Options
		wantFallback string
		wantErrText  string
	}{
		{
			name:         "server unreachable",
			closed:       true,
			wantFallback: DefaultFallback,
			wantErrText:  "failed to send request",
		},
		{
			name: "error response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"No relevant sections found"}`))
			},
			opts:         Options{IDontKnowMessage: "I don't know."},
			wantFallback: "I don't know.",
			wantErrText:  "No relevant sections found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			url := server.URL
			if tt.closed {
				server.Close()
			} else {
				defer server.Close()
			}

			var chunks []string
			var gotErr error
			refsCalled := false

			err := NewClient(url, nil).SubmitPrompt(context.Background(), "What is X?", tt.opts, Callbacks{
				OnAnswerChunk: func(chunk string) { chunks = append(chunks, chunk) },
				OnReferences:  func([]string) { refsCalled = true },
				OnError:       func(err error) { gotErr = err },
			})

			if err == nil || gotErr == nil {
				t.Fatalf("SubmitPrompt() error = %v, OnError = %v, want both set", err, gotErr)
			}
			if !strings.Contains(gotErr.Error(), tt.wantErrText) {
				t.Errorf("error = %v, want it to contain %q", gotErr, tt.wantErrText)
			}
			if len(chunks) != 1 || chunks[0] != tt.wantFallback {
				t.Errorf("chunks = %q, want [%q]", chunks, tt.wantFallback)
			}
			if refsCalled {
				t.Error("OnReferences should not be called on request failure")
			}
		})
	}
}
