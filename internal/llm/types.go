package llm

import "strings"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Family distinguishes the request shape a model expects.
type Family int

const (
	// FamilyChat models take a message list on /v1/chat/completions.
	FamilyChat Family = iota
	// FamilyLegacy models take a single prompt on /v1/completions.
	FamilyLegacy
)

var legacyPrefixes = []string{
	"text-",
	"davinci",
	"curie",
	"babbage",
	"ada",
	"gpt-3.5-turbo-instruct",
}

// FamilyOf returns the request family of a model id.
func FamilyOf(model string) Family {
	for _, p := range legacyPrefixes {
		if strings.HasPrefix(model, p) {
			return FamilyLegacy
		}
	}
	return FamilyChat
}

// CompletionRequest holds the parameters of a completion call.
type CompletionRequest struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model            string
	Prompt           string
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
	MaxTokens        int
}

// Usage is the provider's own token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the result of a non-streaming completion.
type CompletionResponse struct {
	ID    string
	Model string
	Text  string
	Usage Usage
}

// chatRequest is the /v1/chat/completions payload.
type chatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float32   `json:"temperature"`
	TopP             float32   `json:"top_p"`
	FrequencyPenalty float32   `json:"frequency_penalty"`
	PresencePenalty  float32   `json:"presence_penalty"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
	N                int       `json:"n"`
}

// legacyRequest is the /v1/completions payload.
type legacyRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"top_p"`
	FrequencyPenalty float32 `json:"frequency_penalty"`
	PresencePenalty  float32 `json:"presence_penalty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	Stream           bool    `json:"stream,omitempty"`
	N                int     `json:"n"`
}

// completionResponse covers both chat and legacy response bodies.
type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// streamEvent covers both chat and legacy stream events.
type streamEvent struct {
	Choices []struct {
		Text  string `json:"text"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}
