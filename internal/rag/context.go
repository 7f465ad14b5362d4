package rag

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docprompt/internal/vectorstore"
)

var newlineRuns = regexp.MustCompile(`\s*\n[\s\n]*`)

// section is a retrieved section read back from its vector payload.
type section struct {
	id          string
	score       float32
	path        string
	headingPath string
	content     string
	sourceID    string
	sourceType  string
	tokens      int
	meta        map[string]any
}

func sectionFromResult(r vectorstore.SearchResult) section {
	s := section{
		id:          r.PointID,
		score:       r.Score,
		path:        payloadString(r.Meta, vectorstore.PayloadPath),
		headingPath: payloadString(r.Meta, vectorstore.PayloadHeadingPath),
		content:     payloadString(r.Meta, vectorstore.PayloadContent),
		sourceID:    payloadString(r.Meta, vectorstore.PayloadSourceID),
		sourceType:  payloadString(r.Meta, vectorstore.PayloadSourceType),
		tokens:      payloadInt(r.Meta, vectorstore.PayloadTokenCount),
	}
	if m, ok := r.Meta[vectorstore.PayloadMeta].(map[string]any); ok && len(m) > 0 {
		s.meta = m
	}
	if s.tokens <= 0 {
		s.tokens = (utf8.RuneCountInString(s.content) + 3) / 4
	}
	return s
}

func payloadString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func payloadInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// normalizeExcerpt collapses every newline run to a single space.
func normalizeExcerpt(content string) string {
	return strings.TrimSpace(newlineRuns.ReplaceAllString(content, " "))
}

// assembledContext is the part of the retrieval that fits the context budget.
type assembledContext struct {
	text       string
	references []Reference
	included   int
}

// assembleContext takes sections in retrieval order until their summed token
// count would exceed cutoff. References are de-duplicated by path.
func assembleContext(sections []section, cutoff int) assembledContext {
	var sb strings.Builder
	var refs []Reference
	seen := make(map[string]bool)
	tokens := 0
	included := 0

	for _, s := range sections {
		if tokens+s.tokens > cutoff {
			break
		}
		tokens += s.tokens
		included++

		sb.WriteString("Section id: ")
		sb.WriteString(s.path)
		sb.WriteString("\n")
		sb.WriteString(normalizeExcerpt(s.content))
		sb.WriteString("\n---\n")

		if seen[s.path] {
			continue
		}
		seen[s.path] = true
		refs = append(refs, Reference{
			Path:       s.path,
			SourceID:   s.sourceID,
			SourceType: s.sourceType,
			Meta:       s.meta,
		})
	}

	if refs == nil {
		refs = []Reference{}
	}
	return assembledContext{text: sb.String(), references: refs, included: included}
}
