package indexer

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minSectionRunes = 50
	maxSectionRunes = 700
)

// SectionChunker splits documents into sections along their heading structure.
type SectionChunker struct {
	md goldmark.Markdown
}

// NewSectionChunker creates a SectionChunker understanding GFM tables.
func NewSectionChunker() *SectionChunker {
	return &SectionChunker{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Split parses markdown and returns the document title and its sections.
// Sections never exceed maxSectionRunes; short neighbours are merged.
func (c *SectionChunker) Split(content []byte, name string) (string, []Chunk) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return titleFromName(name), nil
	}

	doc := c.md.Parser().Parse(text.NewReader(content))
	title := documentTitle(doc, content, name)

	sections := collectSections(doc, content, title)
	return title, normalizeSizes(sections)
}

// SplitPlain cuts text without markup into windows of at most maxSectionRunes.
func (c *SectionChunker) SplitPlain(content []byte, name string) (string, []Chunk) {
	title := titleFromName(name)
	body := strings.TrimSpace(string(content))
	if body == "" {
		return title, nil
	}

	return title, splitOversized(Chunk{HeadingPath: "# " + title, Text: body}, 0)
}

// documentTitle is the first h1, else the first h2, else a title derived from name.
func documentTitle(doc ast.Node, content []byte, name string) string {
	var h1, h2 string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		switch {
		case h.Level == 1:
			h1 = nodeText(h, content)
			return ast.WalkStop, nil
		case h.Level == 2 && h2 == "":
			h2 = nodeText(h, content)
		}
		return ast.WalkSkipChildren, nil
	})

	if h1 != "" {
		return h1
	}
	if h2 != "" {
		return h2
	}
	return titleFromName(name)
}

// titleFromName turns "getting-started.md" into "Getting Started".
func titleFromName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

type heading struct {
	level int
	text  string
}

// headingPath renders a stack as "# A > ## B".
func headingPath(stack []heading) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = strings.Repeat("#", h.level) + " " + h.text
	}
	return strings.Join(parts, " > ")
}

// sectionBuilder accumulates the text of the section being read.
type sectionBuilder struct {
	sections []Chunk
	current  *Chunk
	sb       strings.Builder
}

func (b *sectionBuilder) start(path string) {
	b.flush()
	b.current = &Chunk{HeadingPath: path}
}

func (b *sectionBuilder) write(s string) {
	b.sb.WriteString(s)
}

func (b *sectionBuilder) newline() {
	if b.sb.Len() > 0 && !strings.HasSuffix(b.sb.String(), "\n") {
		b.sb.WriteByte('\n')
	}
}

func (b *sectionBuilder) flush() {
	if b.current == nil {
		return
	}
	if t := strings.TrimSpace(b.sb.String()); t != "" {
		b.current.Text = t
		b.sections = append(b.sections, *b.current)
	}
	b.sb.Reset()
	b.current = nil
}

func collectSections(doc ast.Node, content []byte, title string) []Chunk {
	b := &sectionBuilder{}
	var stack []heading
	b.start("# " + title)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, heading{level: node.Level, text: nodeText(node, content)})
			b.start(headingPath(stack))
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			b.write(string(node.Segment.Value(content)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.write("\n")
			}

		case *ast.String:
			b.write(string(node.Value))

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.newline()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.write(string(seg.Value(content)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote:
			b.newline()

		case *east.TableHeader, *east.TableRow:
			b.newline()
			b.write(tableRow(n, content))
			b.write("\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	b.flush()

	return b.sections
}

func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := child.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// tableRow renders the cells of a row as "a | b | c".
func tableRow(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*east.TableCell); ok {
			cells = append(cells, nodeText(cell, content))
		}
	}
	return strings.Join(cells, " | ")
}

// normalizeSizes merges undersized sections into their successor and splits oversized ones.
func normalizeSizes(sections []Chunk) []Chunk {
	var out []Chunk
	for i := 0; i < len(sections); i++ {
		cur := sections[i]
		for utf8.RuneCountInString(cur.Text) < minSectionRunes && i+1 < len(sections) {
			merged := cur.Text + "\n\n" + sections[i+1].Text
			if utf8.RuneCountInString(merged) > maxSectionRunes {
				break
			}
			cur.Text = merged
			i++
		}
		out = append(out, splitOversized(cur, 0)...)
	}

	for i := range out {
		out[i].Index = i
	}
	return out
}

// splitOversized cuts a section at the last paragraph, line or sentence break inside each window.
func splitOversized(c Chunk, first int) []Chunk {
	runes := []rune(c.Text)
	var parts []Chunk

	for start := 0; start < len(runes); {
		end := start + maxSectionRunes
		if end >= len(runes) {
			end = len(runes)
		} else {
			window := string(runes[start:end])
			for _, sep := range []string{"\n\n", "\n", ". "} {
				if at := strings.LastIndex(window, sep); at > 0 {
					end = start + utf8.RuneCountInString(window[:at+len(sep)])
					break
				}
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			parts = append(parts, Chunk{
				Index:       first + len(parts),
				HeadingPath: c.HeadingPath,
				Text:        piece,
			})
		}
		start = end
	}
	return parts
}
