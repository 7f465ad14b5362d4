package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_indexer.go -package=mocks docprompt/internal/indexer Indexer

import (
	"context"

	"docprompt/internal/sources"
)

// Chunk is one section of a document.
type Chunk struct {
	Index       int    // Position within the document, from 0
	HeadingPath string // "# Heading1 > ## Heading2"
	Text        string
}

// Item is a resolved source item handed to an Indexer.
type Item struct {
	SourceID   string
	SourceType string
	Path       string
	Checksum   string
	Content    *sources.Content
}

// ResultKind classifies the outcome of indexing one item.
type ResultKind int

const (
	// ResultIndexed means the item is embedded and stored.
	ResultIndexed ResultKind = iota
	// ResultRecoverable means the item failed; the run continues.
	ResultRecoverable
	// ResultFatal means the run must stop, e.g. the training quota is spent.
	ResultFatal
)

// ItemResult is the outcome of Indexer.IndexItem.
type ItemResult struct {
	Kind   ResultKind
	Err    error
	Tokens int
}

// Indexed reports a stored item and the tokens its embedding used.
func Indexed(tokens int) ItemResult {
	return ItemResult{Kind: ResultIndexed, Tokens: tokens}
}

// Recoverable reports a per-item failure.
func Recoverable(err error) ItemResult {
	return ItemResult{Kind: ResultRecoverable, Err: err}
}

// Fatal reports a failure that aborts the run.
func Fatal(err error) ItemResult {
	return ItemResult{Kind: ResultFatal, Err: err}
}

// Indexer embeds and stores single items.
type Indexer interface {
	IndexItem(ctx context.Context, item Item) ItemResult
}

// ItemError is a recoverable failure recorded during a run.
type ItemError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RunResult summarizes one GenerateEmbeddings run.
type RunResult struct {
	Indexed   int         `json:"indexed"`
	Skipped   int         `json:"skipped"`
	Cancelled bool        `json:"cancelled"`
	Errors    []ItemError `json:"errors"`
}
