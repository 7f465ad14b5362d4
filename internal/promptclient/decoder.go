package promptclient

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"docprompt/internal/wire"
)

// Callbacks receive the decoded parts of a streamed completion.
// Any of them may be nil.
type Callbacks struct {
	// OnAnswerChunk is called once per answer fragment, in order.
	OnAnswerChunk func(chunk string)
	// OnReferences is called once, at stream end.
	OnReferences func(references []string)
	// OnPromptID is called with the prompt id from the response header, before any chunk.
	OnPromptID func(promptID string)
	// OnError is called on transport failure.
	OnError func(err error)
}

// Decoder turns the body of a streamed completion back into answer chunks and references.
// The reference block may arrive split across any number of writes; bytes are buffered
// until the separator is seen.
type Decoder struct {
	cb         Callbacks
	buf        []byte
	headerDone bool
	references []string
	pending    []byte
	closed     bool
}

// NewDecoder creates a Decoder reporting to cb.
func NewDecoder(cb Callbacks) *Decoder {
	return &Decoder{cb: cb}
}

// Write feeds the next body bytes. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.closed || len(p) == 0 {
		return len(p), nil
	}

	if d.headerDone {
		d.emit(p)
		return len(p), nil
	}

	d.buf = append(d.buf, p...)
	idx := bytes.Index(d.buf, []byte(wire.Separator))
	if idx < 0 {
		return len(p), nil
	}

	d.headerDone = true
	d.references = parseReferences(d.buf[:idx])
	rest := d.buf[idx+len(wire.Separator):]
	d.buf = nil
	if len(rest) > 0 {
		d.emit(rest)
	}

	return len(p), nil
}

// Close flushes buffered bytes and reports the references.
// A body that never contained the separator is forwarded as answer text with no references.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	if !d.headerDone && len(d.buf) > 0 {
		d.pending = append(d.pending, d.buf...)
		d.buf = nil
	}
	if len(d.pending) > 0 {
		d.chunk(string(d.pending))
		d.pending = nil
	}

	if d.cb.OnReferences != nil {
		refs := d.references
		if refs == nil {
			refs = []string{}
		}
		d.cb.OnReferences(refs)
	}
	return nil
}

// References returns the references decoded so far.
func (d *Decoder) References() []string {
	return d.references
}

// emit forwards p, holding back a trailing incomplete UTF-8 sequence for the next write.
func (d *Decoder) emit(p []byte) {
	data := p
	if len(d.pending) > 0 {
		data = append(d.pending, p...)
		d.pending = nil
	}

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	if cut < len(data) {
		d.pending = append([]byte(nil), data[cut:]...)
	}
	if cut > 0 {
		d.chunk(string(data[:cut]))
	}
}

func (d *Decoder) chunk(s string) {
	if d.cb.OnAnswerChunk != nil {
		d.cb.OnAnswerChunk(s)
	}
}

// parseReferences decodes the header block, yielding an empty list when it is not a JSON string array.
func parseReferences(raw []byte) []string {
	var refs []string
	if err := json.Unmarshal(raw, &refs); err != nil || refs == nil {
		return []string{}
	}
	return refs
}
