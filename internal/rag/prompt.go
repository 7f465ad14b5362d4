package rag

import (
	"strings"
	"unicode"
)

// Template placeholders.
const (
	PlaceholderIDontKnow = "{{I_DONT_KNOW}}"
	PlaceholderContext   = "{{CONTEXT}}"
	PlaceholderPrompt    = "{{PROMPT}}"
)

// DefaultPromptTemplate is used when a request carries no template.
const DefaultPromptTemplate = `You are a very enthusiastic assistant who loves to help people with the product documentation!
Given the following sections of the documentation, each preceded by its section id, answer the question using only that information.
If you are unsure and the answer is not explicitly written in the documentation, say "{{I_DONT_KNOW}}".

Context sections:
{{CONTEXT}}

Question: """
{{PROMPT}}
"""

Answer (including related code snippets if available):`

// buildPrompt fills a template. Placeholders are substituted in a single pass
// so that substituted text is never expanded again. A template without a
// context or prompt placeholder gets that part prepended unless suppressed.
func buildPrompt(req Request, contextText, fallback string) string {
	tpl := req.PromptTemplate
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultPromptTemplate
	}
	tpl = dedent(tpl)

	hasContext := strings.Contains(tpl, PlaceholderContext)
	hasPrompt := strings.Contains(tpl, PlaceholderPrompt)

	out := strings.NewReplacer(
		PlaceholderIDontKnow, fallback,
		PlaceholderContext, contextText,
		PlaceholderPrompt, req.Prompt,
	).Replace(tpl)

	if !hasPrompt && !req.DoNotInjectPrompt {
		out = "Question: \"\"\"\n" + req.Prompt + "\n\"\"\"\n\n" + out
	}
	if !hasContext && !req.DoNotInjectContext {
		out = "Given the following sections of the documentation, each preceded by its section id:\n\n" +
			contextText + "\n" + out
	}

	return dedent(out)
}

// dedent removes the leading whitespace shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(s, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
		if first {
			prefix = indent
			first = false
			continue
		}
		prefix = commonPrefix(prefix, indent)
		if prefix == "" {
			return s
		}
	}
	if prefix == "" {
		return s
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// sanitizePrompt flattens a prompt to one trimmed line.
func sanitizePrompt(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
