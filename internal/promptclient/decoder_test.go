package promptclient

import (
	"strings"
	"testing"

	"docprompt/internal/wire"
)

type recorder struct {
	chunks     []string
	references []string
	refCalls   int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnAnswerChunk: func(chunk string) { r.chunks = append(r.chunks, chunk) },
		OnReferences: func(refs []string) {
			r.refCalls++
			r.references = refs
		},
	}
}

func (r *recorder) answer() string {
	return strings.Join(r.chunks, "")
}

func decodeAll(parts ...string) *recorder {
	rec := &recorder{}
	dec := NewDecoder(rec.callbacks())
	for _, p := range parts {
		_, _ = dec.Write([]byte(p))
	}
	_ = dec.Close()
	return rec
}

func TestDecoder_Scenario(t *testing.T) {
	rec := decodeAll(`["docs/a.md"]`+wire.Separator+"Hello", " world")

	if rec.answer() != "Hello world" {
		t.Errorf("answer = %q, want %q", rec.answer(), "Hello world")
	}
	if len(rec.references) != 1 || rec.references[0] != "docs/a.md" {
		t.Errorf("references = %v, want [docs/a.md]", rec.references)
	}
	if rec.refCalls != 1 {
		t.Errorf("OnReferences calls = %d, want 1", rec.refCalls)
	}
}

func TestDecoder_AnySplitOfHeaderYieldsSameResult(t *testing.T) {
	body := `["docs/a.md","https://example.com/guide"]` + wire.Separator + "Hello, wörld"
	want := decodeAll(body)

	// Every split into two parts, and every split into three parts.
	for i := 0; i <= len(body); i++ {
		got := decodeAll(body[:i], body[i:])
		assertSameDecode(t, got, want, i, -1)

		for j := i; j <= len(body); j++ {
			got := decodeAll(body[:i], body[i:j], body[j:])
			assertSameDecode(t, got, want, i, j)
		}
	}

	// Byte by byte.
	parts := make([]string, len(body))
	for i := 0; i < len(body); i++ {
		parts[i] = body[i : i+1]
	}
	assertSameDecode(t, decodeAll(parts...), want, -1, -1)
}

func assertSameDecode(t *testing.T, got, want *recorder, i, j int) {
	t.Helper()
	if got.answer() != want.answer() {
		t.Fatalf("split (%d,%d): answer = %q, want %q", i, j, got.answer(), want.answer())
	}
	if strings.Join(got.references, "|") != strings.Join(want.references, "|") {
		t.Fatalf("split (%d,%d): references = %v, want %v", i, j, got.references, want.references)
	}
	for _, c := range got.chunks {
		if !isValidUTF8(c) {
			t.Fatalf("split (%d,%d): chunk %q is not valid UTF-8", i, j, c)
		}
	}
}

func isValidUTF8(s string) bool {
	return strings.ToValidUTF8(s, "�") == s
}

func TestDecoder_UnparsableHeader(t *testing.T) {
	rec := decodeAll("not json" + wire.Separator + "answer")

	if len(rec.references) != 0 {
		t.Errorf("references = %v, want empty", rec.references)
	}
	if rec.answer() != "answer" {
		t.Errorf("answer = %q, want answer", rec.answer())
	}
}

func TestDecoder_SeparatorInAnswerIsForwarded(t *testing.T) {
	rec := decodeAll(`[]`+wire.Separator+"a", wire.Separator, "b")

	if rec.answer() != "a"+wire.Separator+"b" {
		t.Errorf("answer = %q", rec.answer())
	}
}

func TestDecoder_NoSeparator(t *testing.T) {
	rec := decodeAll("plain ", "text")

	if rec.answer() != "plain text" {
		t.Errorf("answer = %q, want %q", rec.answer(), "plain text")
	}
	if rec.references == nil || len(rec.references) != 0 {
		t.Errorf("references = %v, want empty non-nil", rec.references)
	}
}

func TestDecoder_NoChunkBeforeSeparator(t *testing.T) {
	rec := &recorder{}
	dec := NewDecoder(rec.callbacks())

	_, _ = dec.Write([]byte(`["a.md"]___START_`))
	if len(rec.chunks) != 0 {
		t.Errorf("chunks before separator = %v, want none", rec.chunks)
	}
	_, _ = dec.Write([]byte(`RESPONSE_STREAM___`))
	if len(rec.chunks) != 0 {
		t.Errorf("chunks with empty remainder = %v, want none", rec.chunks)
	}
	if got := dec.References(); len(got) != 1 || got[0] != "a.md" {
		t.Errorf("References() = %v, want [a.md]", got)
	}
	if rec.refCalls != 0 {
		t.Error("OnReferences should wait for Close")
	}
	_ = dec.Close()
	_ = dec.Close()
	if rec.refCalls != 1 {
		t.Errorf("OnReferences calls = %d, want 1", rec.refCalls)
	}
}
