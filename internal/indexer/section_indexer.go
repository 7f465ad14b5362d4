package indexer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docprompt/internal/contextutil"
	"docprompt/internal/llm"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
	"docprompt/internal/vectorstore"
)

// TokensPerRune approximates tokens as one per four characters.
const TokensPerRune = 4.0

// ErrQuotaExceeded is the fatal error of an item that would exceed the training token quota.
var ErrQuotaExceeded = errors.New("training token quota exceeded")

// SectionIndexer splits items into sections, embeds them, and stores them in SQLite and Qdrant.
type SectionIndexer struct {
	projectID      string
	files          storage.FileStore
	sections       storage.SectionStore
	checksums      storage.ChecksumStore
	usage          storage.UsageStore
	embedder       llm.Embedder
	vectors        vectorstore.VectorStore
	collection     string
	embeddingModel string
	tokenQuota     int
	chunker        *SectionChunker
	now            func() time.Time
}

// NewSectionIndexer creates a SectionIndexer. tokenQuota caps the training tokens
// of a calendar month; 0 means unlimited.
func NewSectionIndexer(
	projectID string,
	files storage.FileStore,
	sections storage.SectionStore,
	checksums storage.ChecksumStore,
	usage storage.UsageStore,
	embedder llm.Embedder,
	vectors vectorstore.VectorStore,
	collection string,
	embeddingModel string,
	tokenQuota int,
) *SectionIndexer {
	return &SectionIndexer{
		projectID:      projectID,
		files:          files,
		sections:       sections,
		checksums:      checksums,
		usage:          usage,
		embedder:       embedder,
		vectors:        vectors,
		collection:     collection,
		embeddingModel: embeddingModel,
		tokenQuota:     tokenQuota,
		chunker:        NewSectionChunker(),
		now:            time.Now,
	}
}

// estimateTokens returns the approximate token count of s, at least 1.
func estimateTokens(s string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(s)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

func isMarkup(item Item) bool {
	if item.SourceType == sources.TypeWebsite {
		return true
	}
	switch strings.ToLower(path.Ext(item.Path)) {
	case ".md", ".mdx", ".markdoc", ".html", ".htm":
		return true
	}
	return false
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// IndexItem replaces the stored sections of one item. Exceeding the training
// quota, locally or at the provider, is fatal; other failures are recoverable.
func (x *SectionIndexer) IndexItem(ctx context.Context, item Item) ItemResult {
	logger := contextutil.LoggerFromContext(ctx)

	name := item.Content.Name
	if name == "" {
		name = path.Base(item.Path)
	}

	var title string
	var chunks []Chunk
	if isMarkup(item) {
		title, chunks = x.chunker.Split([]byte(item.Content.Content), name)
	} else {
		title, chunks = x.chunker.SplitPlain([]byte(item.Content.Content), name)
	}

	texts := make([]string, len(chunks))
	estimated := 0
	for i, c := range chunks {
		texts[i] = c.Text
		estimated += estimateTokens(c.Text)
	}

	if x.tokenQuota > 0 && estimated > 0 {
		used, err := x.usage.SumSince(ctx, x.projectID, storage.UsageKindTraining, monthStart(x.now()))
		if err != nil {
			return Recoverable(fmt.Errorf("failed to read training usage: %w", err))
		}
		if used+estimated > x.tokenQuota {
			return Fatal(fmt.Errorf("%w: %d of %d tokens used, item needs %d", ErrQuotaExceeded, used, x.tokenQuota, estimated))
		}
	}

	var vectors [][]float32
	tokens := 0
	if len(texts) > 0 {
		res, err := x.embedder.EmbedWithRetry(ctx, texts, "")
		if err != nil {
			if llm.IsInsufficientQuota(err) {
				return Fatal(fmt.Errorf("%w: %v", ErrQuotaExceeded, err))
			}
			return Recoverable(fmt.Errorf("failed to generate embeddings: %w", err))
		}
		if len(res.Vectors) != len(chunks) {
			return Recoverable(fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(res.Vectors)))
		}
		vectors = res.Vectors
		tokens = res.Tokens
		if tokens == 0 {
			tokens = estimated
		}
	}

	existing, err := x.files.GetBySourceAndPath(ctx, item.SourceID, item.Path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Recoverable(fmt.Errorf("failed to check existing file: %w", err))
	}

	file := &storage.FileRecord{
		SourceID: item.SourceID,
		Path:     item.Path,
		Title:    title,
		Meta:     item.Content.Metadata,
	}
	if existing != nil {
		file.ID = existing.ID
		oldIDs, err := x.sections.ListIDsByFile(ctx, existing.ID)
		if err != nil {
			return Recoverable(fmt.Errorf("failed to list old sections: %w", err))
		}
		if err := x.vectors.Delete(ctx, x.collection, oldIDs); err != nil {
			logger.WarnContext(ctx, "failed to delete old sections from Qdrant", "error", err, "count", len(oldIDs))
		}
	}

	fileID, err := x.files.Upsert(ctx, file)
	if err != nil {
		return Recoverable(err)
	}

	records := make([]storage.SectionRecord, len(chunks))
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		id := uuid.New().String()
		tc := estimateTokens(c.Text)
		records[i] = storage.SectionRecord{
			ID:           id,
			FileID:       fileID,
			SectionIndex: c.Index,
			HeadingPath:  c.HeadingPath,
			Content:      c.Text,
			TokenCount:   tc,
		}
		points[i] = vectorstore.Point{
			ID:  id,
			Vec: vectors[i],
			Meta: map[string]any{
				vectorstore.PayloadProjectID:     x.projectID,
				vectorstore.PayloadSourceID:      item.SourceID,
				vectorstore.PayloadSourceType:    item.SourceType,
				vectorstore.PayloadFileID:        fileID,
				vectorstore.PayloadPath:          item.Path,
				vectorstore.PayloadHeadingPath:   c.HeadingPath,
				vectorstore.PayloadContent:       c.Text,
				vectorstore.PayloadContentLength: utf8.RuneCountInString(c.Text),
				vectorstore.PayloadTokenCount:    tc,
				vectorstore.PayloadMeta:          metaPayload(item.Content.Metadata),
			},
		}
	}

	if err := x.sections.ReplaceForFile(ctx, fileID, records); err != nil {
		return Recoverable(err)
	}
	if err := x.vectors.Upsert(ctx, x.collection, points); err != nil {
		return Recoverable(fmt.Errorf("failed to upsert vectors: %w", err))
	}

	if tokens > 0 {
		if err := x.usage.Record(ctx, storage.UsageRecord{
			ProjectID: x.projectID,
			Kind:      storage.UsageKindTraining,
			Model:     x.embeddingModel,
			Tokens:    tokens,
		}); err != nil {
			logger.WarnContext(ctx, "failed to record training usage", "error", err)
		}
	}

	logger.InfoContext(ctx, "indexed item", "path", item.Path, "sections", len(chunks), "title", title, "tokens", tokens)
	return Indexed(tokens)
}

// metaPayload keeps the scalar string values of item metadata for the vector payload.
func metaPayload(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// DeleteSource removes every indexed trace of a source: vectors, files with their sections, and checksums.
func (x *SectionIndexer) DeleteSource(ctx context.Context, sourceID string) error {
	if err := x.vectors.DeleteBySource(ctx, x.collection, sourceID); err != nil {
		return fmt.Errorf("failed to delete source vectors: %w", err)
	}
	if err := x.files.DeleteBySource(ctx, sourceID); err != nil {
		return err
	}
	if err := x.checksums.DeleteBySource(ctx, sourceID); err != nil {
		return err
	}
	return nil
}
