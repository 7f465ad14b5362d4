package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSectionChunker_Split(t *testing.T) {
	chunker := NewSectionChunker()

	tests := []struct {
		name      string
		content   string
		filename  string
		wantTitle string
		check     func(t *testing.T, chunks []Chunk)
	}{
		{
			name:      "empty content",
			content:   "  \n",
			filename:  "empty-page.md",
			wantTitle: "Empty Page",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 0 {
					t.Errorf("chunks = %d, want 0", len(chunks))
				}
			},
		},
		{
			name:      "no headings uses filename",
			content:   "Just some content without headings.",
			filename:  "no-headings.md",
			wantTitle: "No Headings",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 || chunks[0].HeadingPath != "# No Headings" {
					t.Errorf("chunks = %+v", chunks)
				}
			},
		},
		{
			name:      "h2 as title when no h1",
			content:   "## First H2\n\nContent",
			filename:  "h2-title.md",
			wantTitle: "First H2",
		},
		{
			name:      "table rows",
			content:   "# Pricing\n\n| Plan | Price |\n| --- | --- |\n| Free | $0 |\n| Pro | $10 |\n",
			filename:  "pricing.md",
			wantTitle: "Pricing",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 {
					t.Fatalf("chunks = %d, want 1", len(chunks))
				}
				if !strings.Contains(chunks[0].Text, "Plan | Price") || !strings.Contains(chunks[0].Text, "Free | $0") {
					t.Errorf("table text = %q", chunks[0].Text)
				}
			},
		},
		{
			name:      "fenced code",
			content:   "# Setup\n\nRun:\n\n```sh\nmake build\n```\n",
			filename:  "setup.md",
			wantTitle: "Setup",
			check: func(t *testing.T, chunks []Chunk) {
				if len(chunks) != 1 || !strings.Contains(chunks[0].Text, "make build") {
					t.Errorf("chunks = %+v", chunks)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, chunks := chunker.Split([]byte(tt.content), tt.filename)
			if title != tt.wantTitle {
				t.Errorf("Split() title = %q, want %q", title, tt.wantTitle)
			}
			if tt.check != nil {
				tt.check(t, chunks)
			}
		})
	}
}

func TestSectionChunker_Split_HeadingHierarchy(t *testing.T) {
	content := []byte(`# Main Heading

Content under main.

## Sub Heading 1

Content under sub 1.

### Sub Sub Heading

Content under sub sub.

## Sub Heading 2

Content under sub 2.
`)

	title, chunks := NewSectionChunker().Split(content, "hierarchy.md")
	if title != "Main Heading" {
		t.Errorf("title = %q, want Main Heading", title)
	}

	// Short sections merge forward until the minimum size is reached.
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2: %+v", len(chunks), chunks)
	}
	if chunks[0].HeadingPath != "# Main Heading" {
		t.Errorf("chunks[0].HeadingPath = %q", chunks[0].HeadingPath)
	}
	if !strings.Contains(chunks[0].Text, "Content under sub sub.") {
		t.Errorf("chunks[0].Text = %q, want merged sections", chunks[0].Text)
	}
	if chunks[1].HeadingPath != "# Main Heading > ## Sub Heading 2" {
		t.Errorf("chunks[1].HeadingPath = %q", chunks[1].HeadingPath)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunks[%d].Index = %d", i, c.Index)
		}
	}
}

func TestSectionChunker_Split_SizeConstraints(t *testing.T) {
	content := "# Heading\n\n" + strings.Repeat("a", 5000)

	_, chunks := NewSectionChunker().Split([]byte(content), "large.md")
	if len(chunks) < 8 {
		t.Errorf("chunks = %d, want at least 8", len(chunks))
	}

	total := 0
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk.Text)
		if n > maxSectionRunes {
			t.Errorf("chunk[%d] size = %d runes, exceeds max %d", i, n, maxSectionRunes)
		}
		total += n
	}
	if total != 5000 {
		t.Errorf("total runes = %d, want 5000", total)
	}
}

func TestSectionChunker_SplitPlain(t *testing.T) {
	text := strings.Repeat("é", 1500)

	title, chunks := NewSectionChunker().SplitPlain([]byte(text), "notes/release_notes.txt")
	if title != "Release Notes" {
		t.Errorf("title = %q, want Release Notes", title)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunks[%d].Index = %d", i, c.Index)
		}
		if utf8.RuneCountInString(c.Text) > maxSectionRunes {
			t.Errorf("chunks[%d] too large", i)
		}
	}
}

func TestSplitOversized_PrefersParagraphBreaks(t *testing.T) {
	first := strings.Repeat("a", 400)
	second := strings.Repeat("b", 400)

	parts := splitOversized(Chunk{HeadingPath: "# H", Text: first + "\n\n" + second}, 0)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if parts[0].Text != first || parts[1].Text != second {
		t.Error("split should happen at the paragraph break")
	}
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "test.md", want: "Test"},
		{name: "my test file.md", want: "My Test File"},
		{name: "my_test_file.md", want: "My Test File"},
		{name: "getting-started.mdx", want: "Getting Started"},
		{name: "folder/test.md", want: "Test"},
		{name: "test", want: "Test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleFromName(tt.name); got != tt.want {
				t.Errorf("titleFromName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
