package rag

import (
	"strings"
	"unicode"
)

// Lexical scoring is reported to first-party callers only. It never reorders
// retrieval results.
const (
	maxLexicalScore   = float32(0.4)
	headingMatchBonus = float32(0.1)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "what": {}, "with": {},
}

func buildDebugInfo(p *prepared) *DebugInfo {
	info := &DebugInfo{
		Prompt:   p.prompt,
		Sections: make([]RetrievedSection, len(p.sections)),
	}
	for i, s := range p.sections {
		info.Sections[i] = RetrievedSection{
			ID:           s.id,
			Path:         s.path,
			HeadingPath:  s.headingPath,
			Rank:         i + 1,
			ScoreVector:  s.score,
			ScoreLexical: lexicalScore(p.req.Prompt, s.content, s.headingPath),
			TokenCount:   s.tokens,
			Included:     i < p.context.included,
		}
	}
	return info
}

// lexicalScore is the share of query terms found in the content, scaled to
// maxLexicalScore, plus a bonus per term found in the heading path.
func lexicalScore(query, content, headingPath string) float32 {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return 0
	}

	contentWords := wordSet(content)
	headings := wordSet(headingPath)

	var hits, headingHits int
	for _, t := range terms {
		if _, ok := contentWords[t]; ok {
			hits++
		}
		if _, ok := headings[t]; ok {
			headingHits++
		}
	}

	score := maxLexicalScore*float32(hits)/float32(len(terms)) + headingMatchBonus*float32(headingHits)
	return min(score, maxLexicalScore)
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// queryTerms returns the distinct non-stopword words of a query.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range words(query) {
		if _, stop := stopwords[w]; stop || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(text) {
		set[w] = struct{}{}
	}
	return set
}
