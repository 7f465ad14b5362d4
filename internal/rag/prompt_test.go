package rag

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	const contextText = "Section id: docs/a.md\nAlpha content\n---\n"

	tests := []struct {
		name        string
		req         Request
		contains    []string
		notContains []string
		prefix      string
	}{
		{
			name: "default template",
			req:  Request{Prompt: "What is alpha?"},
			contains: []string{
				"Section id: docs/a.md",
				"What is alpha?",
				`say "Sorry, I am not sure how to answer that."`,
			},
			notContains: []string{PlaceholderContext, PlaceholderPrompt, PlaceholderIDontKnow},
		},
		{
			name:     "custom template with every placeholder",
			req:      Request{Prompt: "Q?", PromptTemplate: "Docs: {{CONTEXT}} Ask: {{PROMPT}} Else: {{I_DONT_KNOW}}"},
			prefix:   "Docs: Section id: docs/a.md",
			contains: []string{"Ask: Q?", "Else: fallback"},
		},
		{
			name:     "missing context placeholder is prepended",
			req:      Request{Prompt: "Q?", PromptTemplate: "Answer {{PROMPT}} briefly."},
			prefix:   "Given the following sections of the documentation",
			contains: []string{contextText, "Answer Q? briefly."},
		},
		{
			name:        "context injection suppressed",
			req:         Request{Prompt: "Q?", PromptTemplate: "Answer {{PROMPT}} briefly.", DoNotInjectContext: true},
			prefix:      "Answer Q? briefly.",
			notContains: []string{"Alpha content"},
		},
		{
			name:     "missing prompt placeholder is prepended",
			req:      Request{Prompt: "Q?", PromptTemplate: "Use {{CONTEXT}}"},
			prefix:   "Question: \"\"\"\nQ?\n\"\"\"",
			contains: []string{"Use Section id"},
		},
		{
			name:        "prompt injection suppressed",
			req:         Request{Prompt: "Q?", PromptTemplate: "Use {{CONTEXT}}", DoNotInjectPrompt: true},
			prefix:      "Use Section id",
			notContains: []string{"Q?"},
		},
		{
			name:     "placeholders inside the prompt are not expanded",
			req:      Request{Prompt: "echo {{CONTEXT}}", PromptTemplate: "{{PROMPT}} | {{CONTEXT}}"},
			prefix:   "echo {{CONTEXT}} | Section id",
			contains: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := "fallback"
			if tt.req.PromptTemplate == "" {
				fallback = DefaultIDontKnowMessage
			}
			got := buildPrompt(tt.req, contextText, fallback)

			if tt.prefix != "" && !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("buildPrompt() = %q, want prefix %q", got, tt.prefix)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("buildPrompt() = %q, want it to contain %q", got, s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(got, s) {
					t.Errorf("buildPrompt() = %q, should not contain %q", got, s)
				}
			}
		})
	}
}

func TestDedent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no indentation", "a\nb", "a\nb"},
		{"common spaces", "    a\n      b\n    c", "a\n  b\nc"},
		{"blank lines ignored", "\t\ta\n\n\t\tb", "a\n\nb"},
		{"mixed indentation kept", "  a\n\tb", "  a\n\tb"},
		{"one line flush left", "  a\nb", "  a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedent(tt.input); got != tt.want {
				t.Errorf("dedent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildPrompt_DedentsTemplate(t *testing.T) {
	req := Request{Prompt: "Q?", PromptTemplate: "\n    Context: {{CONTEXT}}\n    Question: {{PROMPT}}\n"}
	got := buildPrompt(req, "ctx", "idk")
	want := "\nContext: ctx\nQuestion: Q?\n"
	if got != want {
		t.Errorf("buildPrompt() = %q, want %q", got, want)
	}
}

func TestSanitizePrompt(t *testing.T) {
	if got := sanitizePrompt("  How do I\ninstall it?\n"); got != "How do I install it?" {
		t.Errorf("sanitizePrompt() = %q", got)
	}
}
