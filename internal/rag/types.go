package rag

// InsightsTier controls how much of a query is persisted.
type InsightsTier string

const (
	// InsightsNone keeps only the prompt and references.
	InsightsNone InsightsTier = "none"
	// InsightsBasic also keeps the response text.
	InsightsBasic InsightsTier = "basic"
	// InsightsAdvanced also keeps the query embedding.
	InsightsAdvanced InsightsTier = "advanced"
)

// ParseInsightsTier returns the tier named s, or false if s names none.
func ParseInsightsTier(s string) (InsightsTier, bool) {
	switch t := InsightsTier(s); t {
	case InsightsNone, InsightsBasic, InsightsAdvanced:
		return t, true
	}
	return "", false
}

func (t InsightsTier) keepsResponse() bool {
	return t == InsightsBasic || t == InsightsAdvanced
}

func (t InsightsTier) keepsEmbedding() bool {
	return t == InsightsAdvanced
}

// Defaults applied to requests that leave a value unset.
const (
	DefaultModel            = "gpt-3.5-turbo"
	DefaultIDontKnowMessage = "Sorry, I am not sure how to answer that."
	DefaultThreshold        = float32(0.5)
	DefaultMatchCount       = 10
	DefaultMinContentLength = 30
	DefaultTemperature      = float32(0.1)
	DefaultTopP             = float32(1)
	DefaultMaxTokens        = 500
	// ContextTokenCutoff bounds the summed token count of sections sent to the model.
	ContextTokenCutoff = 1500
)

// Config holds the project-wide settings of an Engine.
type Config struct {
	ProjectID      string
	Collection     string
	Model          string
	EmbeddingModel string
	InsightsTier   InsightsTier
	// Moderate disables the moderation stage when false.
	Moderate bool
}

// Request is a single completion query.
type Request struct {
	Prompt           string   `json:"prompt"`
	Model            string   `json:"model,omitempty"`
	PromptTemplate   string   `json:"promptTemplate,omitempty"`
	IDontKnowMessage string   `json:"iDontKnowMessage,omitempty"`
	Stream           *bool    `json:"stream,omitempty"`
	Threshold        *float32 `json:"sectionsMatchThreshold,omitempty"`
	MatchCount       *int     `json:"sectionsMatchCount,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"topP,omitempty"`
	FrequencyPenalty float32  `json:"frequencyPenalty,omitempty"`
	PresencePenalty  float32  `json:"presencePenalty,omitempty"`
	MaxTokens        *int     `json:"maxTokens,omitempty"`

	// DoNotInjectContext keeps the context out of a template lacking {{CONTEXT}}.
	DoNotInjectContext bool `json:"doNotInjectContext,omitempty"`
	// DoNotInjectPrompt keeps the prompt out of a template lacking {{PROMPT}}.
	DoNotInjectPrompt bool `json:"doNotInjectPrompt,omitempty"`

	ExcludeFromInsights bool `json:"excludeFromInsights,omitempty"`
	Redact              bool `json:"redact,omitempty"`

	// FirstParty marks calls from the system's own frontend. They receive debug info.
	FirstParty bool `json:"-"`
	// APIKey is a caller-supplied provider key. Calls using it are not metered.
	APIKey string `json:"-"`
}

// WantsStream reports whether the caller asked for a streamed answer, the default.
func (r Request) WantsStream() bool {
	return r.Stream == nil || *r.Stream
}

// Reference identifies a document that informed an answer.
type Reference struct {
	Path       string         `json:"path"`
	SourceID   string         `json:"sourceId,omitempty"`
	SourceType string         `json:"sourceType,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Completion is a non-streamed answer.
type Completion struct {
	Text       string      `json:"text"`
	References []Reference `json:"references"`
	ResponseID string      `json:"responseId"`
	Debug      *DebugInfo  `json:"debugInfo,omitempty"`
	// HeaderData is the encoded value of the data header.
	HeaderData string `json:"-"`
}

// Chunk is one piece of a streamed body. A chunk with Err set is the last one.
type Chunk struct {
	Data []byte
	Err  error
}

// Stream is a streamed answer. Chunks is closed once the answer is complete
// and the query record has been updated.
type Stream struct {
	PromptID   string
	References []Reference
	HeaderData string
	Chunks     <-chan Chunk
}

// DebugInfo describes the retrieval behind an answer.
type DebugInfo struct {
	Prompt   string             `json:"prompt"`
	Sections []RetrievedSection `json:"sections"`
}

// RetrievedSection is one retrieved section with its scores.
type RetrievedSection struct {
	ID           string  `json:"id"`
	Path         string  `json:"path"`
	HeadingPath  string  `json:"headingPath,omitempty"`
	Rank         int     `json:"rank"`
	ScoreVector  float32 `json:"scoreVector"`
	ScoreLexical float32 `json:"scoreLexical"`
	TokenCount   int     `json:"tokenCount"`
	Included     bool    `json:"included"`
}

// referencePaths projects references to their paths.
func referencePaths(refs []Reference) []string {
	paths := make([]string, len(refs))
	for i, r := range refs {
		paths[i] = r.Path
	}
	return paths
}

func noAnswer(reason string) *string {
	return &reason
}
