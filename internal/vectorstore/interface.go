package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docprompt/internal/vectorstore VectorStore

import "context"

// Payload keys written with every section point.
const (
	PayloadProjectID     = "project_id"
	PayloadSourceID      = "source_id"
	PayloadSourceType    = "source_type"
	PayloadFileID        = "file_id"
	PayloadPath          = "path"
	PayloadHeadingPath   = "heading_path"
	PayloadContent       = "content"
	PayloadContentLength = "content_length"
	PayloadTokenCount    = "token_count"
	PayloadMeta          = "meta"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchRequest describes a similarity query.
type SearchRequest struct {
	Vector []float32
	Limit  int
	// ScoreThreshold drops results scoring below it. Zero disables the threshold.
	ScoreThreshold float32
	// MinContentLength drops sections whose content is shorter, in characters.
	MinContentLength int
	ProjectID        string
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search constrained by the request filters.
	Search(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteBySource removes every point that belongs to a source.
	DeleteBySource(ctx context.Context, collection, sourceID string) error
}
