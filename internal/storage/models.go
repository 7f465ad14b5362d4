package storage

import "time"

// SourceRecord is a registered content source of a project.
type SourceRecord struct {
	ID        string
	ProjectID string
	Type      string
	Name      string
	Config    map[string]any
	CreatedAt time.Time
}

// ChecksumRecord is the last indexed content hash of one path within a source.
type ChecksumRecord struct {
	SourceID  string
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// FileRecord is an indexed document.
type FileRecord struct {
	ID        string
	SourceID  string
	Path      string
	Title     string
	Meta      map[string]any
	UpdatedAt time.Time
}

// SectionRecord is one embedded chunk of a file.
type SectionRecord struct {
	ID           string
	FileID       string
	SectionIndex int
	HeadingPath  string
	Content      string
	TokenCount   int
}

// QueryRecord is a persisted prompt/response pair used for insights.
type QueryRecord struct {
	ID             string
	ProjectID      string
	Prompt         *string
	Response       *string
	Embedding      []float32
	NoAnswerReason *string
	References     []string
	Processed      bool
	CreatedAt      time.Time
}

// UsageRecord is a token consumption entry.
type UsageRecord struct {
	ProjectID string
	Kind      string
	Model     string
	Tokens    int
	CreatedAt time.Time
}

// Usage kinds.
const (
	UsageKindEmbedding  = "embedding"
	UsageKindCompletion = "completion"
	UsageKindTraining   = "training"
)

// Reasons recorded on queries that produced no answer.
const (
	NoAnswerNoSections = "no_sections"
	NoAnswerIDK        = "idk"
	NoAnswerAPIError   = "api_error"
)
