package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docprompt/internal/llm"
	llm_mocks "docprompt/internal/llm/mocks"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
	storage_mocks "docprompt/internal/storage/mocks"
	"docprompt/internal/vectorstore"
	vectorstore_mocks "docprompt/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

type indexerMocks struct {
	files     *storage_mocks.MockFileStore
	sections  *storage_mocks.MockSectionStore
	checksums *storage_mocks.MockChecksumStore
	usage     *storage_mocks.MockUsageStore
	embedder  *llm_mocks.MockEmbedder
	vectors   *vectorstore_mocks.MockVectorStore
}

func newTestSectionIndexer(ctrl *gomock.Controller, quota int) (*SectionIndexer, indexerMocks) {
	m := indexerMocks{
		files:     storage_mocks.NewMockFileStore(ctrl),
		sections:  storage_mocks.NewMockSectionStore(ctrl),
		checksums: storage_mocks.NewMockChecksumStore(ctrl),
		usage:     storage_mocks.NewMockUsageStore(ctrl),
		embedder:  llm_mocks.NewMockEmbedder(ctrl),
		vectors:   vectorstore_mocks.NewMockVectorStore(ctrl),
	}
	x := NewSectionIndexer("p1", m.files, m.sections, m.checksums, m.usage, m.embedder, m.vectors, "sections", "text-embedding-3-small", quota)
	x.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return x, m
}

func fakeVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out
}

const guideMarkdown = `# Guide

This guide explains how to install the command line tool on every platform.

## Configuration

Settings live in a YAML file next to the binary and can be overridden with environment variables.
`

func TestSectionIndexer_IndexItem_NewFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	x, m := newTestSectionIndexer(ctrl, 0)
	ctx := context.Background()

	m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(ctx context.Context, texts []string, apiKey string) (*llm.EmbeddingResult, error) {
			if len(texts) != 2 {
				t.Errorf("embedded %d texts, want 2", len(texts))
			}
			return &llm.EmbeddingResult{Vectors: fakeVectors(len(texts)), Tokens: 42}, nil
		})
	m.files.EXPECT().GetBySourceAndPath(gomock.Any(), "src-1", "docs/guide.md").Return(nil, storage.ErrNotFound)
	m.files.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, f *storage.FileRecord) (string, error) {
			if f.Title != "Guide" || f.ID != "" {
				t.Errorf("file record = %+v", f)
			}
			return "file-1", nil
		})
	m.sections.EXPECT().ReplaceForFile(gomock.Any(), "file-1", gomock.Len(2)).Return(nil)
	m.vectors.EXPECT().Upsert(gomock.Any(), "sections", gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, points []vectorstore.Point) error {
			if len(points) != 2 {
				t.Fatalf("points = %d, want 2", len(points))
			}
			meta := points[1].Meta
			if meta[vectorstore.PayloadProjectID] != "p1" || meta[vectorstore.PayloadSourceID] != "src-1" {
				t.Errorf("payload ids = %v", meta)
			}
			if meta[vectorstore.PayloadHeadingPath] != "# Guide > ## Configuration" {
				t.Errorf("heading path = %v", meta[vectorstore.PayloadHeadingPath])
			}
			content, _ := meta[vectorstore.PayloadContent].(string)
			if meta[vectorstore.PayloadContentLength] != len([]rune(content)) {
				t.Errorf("content length = %v", meta[vectorstore.PayloadContentLength])
			}
			return nil
		})
	m.usage.EXPECT().Record(gomock.Any(), storage.UsageRecord{
		ProjectID: "p1",
		Kind:      storage.UsageKindTraining,
		Model:     "text-embedding-3-small",
		Tokens:    42,
	}).Return(nil)

	res := x.IndexItem(ctx, Item{
		SourceID:   "src-1",
		SourceType: sources.TypeGitHub,
		Path:       "docs/guide.md",
		Content:    &sources.Content{Name: "guide.md", Content: guideMarkdown, Metadata: map[string]any{"repo": "acme/docs"}},
	})
	if res.Kind != ResultIndexed || res.Tokens != 42 {
		t.Errorf("IndexItem() = %+v, want indexed with 42 tokens", res)
	}
}

func TestSectionIndexer_IndexItem_ReplacesOldSections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	x, m := newTestSectionIndexer(ctrl, 0)

	m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Len(1), "").
		Return(&llm.EmbeddingResult{Vectors: fakeVectors(1)}, nil)
	m.files.EXPECT().GetBySourceAndPath(gomock.Any(), "src-1", "notes.txt").
		Return(&storage.FileRecord{ID: "file-9", SourceID: "src-1", Path: "notes.txt"}, nil)
	m.sections.EXPECT().ListIDsByFile(gomock.Any(), "file-9").Return([]string{"old-1", "old-2"}, nil)
	m.vectors.EXPECT().Delete(gomock.Any(), "sections", []string{"old-1", "old-2"}).Return(errors.New("qdrant down"))
	m.files.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, f *storage.FileRecord) (string, error) {
			if f.ID != "file-9" {
				t.Errorf("file ID = %q, want file-9 to be preserved", f.ID)
			}
			return f.ID, nil
		})
	m.sections.EXPECT().ReplaceForFile(gomock.Any(), "file-9", gomock.Len(1)).Return(nil)
	m.vectors.EXPECT().Upsert(gomock.Any(), "sections", gomock.Len(1)).Return(nil)
	// Tokens fall back to the local estimate when the provider reports none.
	m.usage.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	res := x.IndexItem(context.Background(), Item{
		SourceID: "src-1",
		Path:     "notes.txt",
		Content:  &sources.Content{Content: "Plain text notes without markup."},
	})
	if res.Kind != ResultIndexed || res.Tokens != 8 {
		t.Errorf("IndexItem() = %+v, want indexed with 8 tokens", res)
	}
}

func TestSectionIndexer_IndexItem_Failures(t *testing.T) {
	item := Item{
		SourceID: "src-1",
		Path:     "big.md",
		Content:  &sources.Content{Content: "# Big\n\n" + strings.Repeat("word ", 200)},
	}

	tests := []struct {
		name     string
		quota    int
		setup    func(m indexerMocks)
		wantKind ResultKind
	}{
		{
			name:  "local quota exceeded",
			quota: 100,
			setup: func(m indexerMocks) {
				m.usage.EXPECT().SumSince(gomock.Any(), "p1", storage.UsageKindTraining,
					time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Return(90, nil)
			},
			wantKind: ResultFatal,
		},
		{
			name: "provider out of quota",
			setup: func(m indexerMocks) {
				m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Any(), "").
					Return(nil, &llm.APIError{StatusCode: 429, Code: "insufficient_quota", Message: "You exceeded your current quota"})
			},
			wantKind: ResultFatal,
		},
		{
			name: "embedding failure",
			setup: func(m indexerMocks) {
				m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Any(), "").
					Return(nil, errors.New("connection refused"))
			},
			wantKind: ResultRecoverable,
		},
		{
			name: "vector count mismatch",
			setup: func(m indexerMocks) {
				m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Any(), "").
					Return(&llm.EmbeddingResult{Vectors: fakeVectors(0)}, nil)
			},
			wantKind: ResultRecoverable,
		},
		{
			name: "file store failure",
			setup: func(m indexerMocks) {
				m.embedder.EXPECT().EmbedWithRetry(gomock.Any(), gomock.Any(), "").
					DoAndReturn(func(ctx context.Context, texts []string, apiKey string) (*llm.EmbeddingResult, error) {
						return &llm.EmbeddingResult{Vectors: fakeVectors(len(texts))}, nil
					})
				m.files.EXPECT().GetBySourceAndPath(gomock.Any(), "src-1", "big.md").Return(nil, errors.New("database is locked"))
			},
			wantKind: ResultRecoverable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			x, m := newTestSectionIndexer(ctrl, tt.quota)
			tt.setup(m)

			res := x.IndexItem(context.Background(), item)
			if res.Kind != tt.wantKind {
				t.Errorf("IndexItem() kind = %v, want %v (err %v)", res.Kind, tt.wantKind, res.Err)
			}
			if res.Err == nil {
				t.Error("IndexItem() should carry the error")
			}
			if tt.wantKind == ResultFatal && !errors.Is(res.Err, ErrQuotaExceeded) {
				t.Errorf("fatal error = %v, want ErrQuotaExceeded", res.Err)
			}
		})
	}
}

func TestSectionIndexer_DeleteSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	x, m := newTestSectionIndexer(ctrl, 0)

	gomock.InOrder(
		m.vectors.EXPECT().DeleteBySource(gomock.Any(), "sections", "src-1").Return(nil),
		m.files.EXPECT().DeleteBySource(gomock.Any(), "src-1").Return(nil),
		m.checksums.EXPECT().DeleteBySource(gomock.Any(), "src-1").Return(nil),
	)

	if err := x.DeleteSource(context.Background(), "src-1"); err != nil {
		t.Fatalf("DeleteSource() error = %v", err)
	}
}

func TestSectionIndexer_DeleteSource_VectorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	x, m := newTestSectionIndexer(ctrl, 0)
	m.vectors.EXPECT().DeleteBySource(gomock.Any(), "sections", "src-1").Return(errors.New("unavailable"))

	if err := x.DeleteSource(context.Background(), "src-1"); err == nil {
		t.Error("DeleteSource() expected error")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"ab", 1},
		{"abcdefgh", 2},
		{strings.Repeat("é", 40), 10},
	}
	for _, tt := range tests {
		if got := estimateTokens(tt.in); got != tt.want {
			t.Errorf("estimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
