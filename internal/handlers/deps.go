package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_handler_deps.go -package=mocks docprompt/internal/handlers CompletionEngine,Trainer,SourceIndex

import (
	"context"

	"docprompt/internal/indexer"
	"docprompt/internal/rag"
)

// CompletionEngine answers prompts.
type CompletionEngine interface {
	Complete(ctx context.Context, req rag.Request) (*rag.Completion, error)
	Stream(ctx context.Context, req rag.Request) (*rag.Stream, error)
}

// Trainer runs ingestion.
type Trainer interface {
	TrainSource(ctx context.Context, sourceID string, force bool) (*indexer.RunResult, error)
	StartSource(ctx context.Context, sourceID string, force bool) error
	StartAllSources(ctx context.Context, force bool) error
	Cancel() bool
	State() indexer.TrainingState
}

// SourceIndex reads and removes what has been indexed for a source.
type SourceIndex interface {
	Stats(ctx context.Context, sourceID string) (*indexer.SourceStats, error)
	DeleteSource(ctx context.Context, sourceID string) error
}
