// Package wire holds the byte-level contract shared by the completion stream
// producer and its consumers.
package wire

import (
	"encoding/json"
	"fmt"
)

// Separator ends the reference header block at the start of a streamed answer.
const Separator = "___START_RESPONSE_STREAM___"

// DataHeader carries the encoded HeaderData on every completion response.
const DataHeader = "X-Docprompt-Data"

// ProviderKeyHeader carries a caller-supplied model provider key.
const ProviderKeyHeader = "X-Provider-Key"

// HeaderData is the out-of-band metadata of a completion.
type HeaderData struct {
	References []string `json:"references"`
	PromptID   string   `json:"promptId,omitempty"`
}

// EncodeHeaderData returns the header value: a JSON array of the UTF-8 bytes
// of the JSON-encoded data. Header values must stay ASCII, paths may not be.
func EncodeHeaderData(data HeaderData) (string, error) {
	if data.References == nil {
		data.References = []string{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode header data: %w", err)
	}

	codes := make([]int, len(raw))
	for i, b := range raw {
		codes[i] = int(b)
	}

	out, err := json.Marshal(codes)
	if err != nil {
		return "", fmt.Errorf("failed to encode header bytes: %w", err)
	}
	return string(out), nil
}

// DecodeHeaderData reverses EncodeHeaderData.
func DecodeHeaderData(value string) (HeaderData, error) {
	var codes []int
	if err := json.Unmarshal([]byte(value), &codes); err != nil {
		return HeaderData{}, fmt.Errorf("failed to decode header bytes: %w", err)
	}

	raw := make([]byte, len(codes))
	for i, c := range codes {
		if c < 0 || c > 255 {
			return HeaderData{}, fmt.Errorf("header byte %d out of range: %d", i, c)
		}
		raw[i] = byte(c)
	}

	var data HeaderData
	if err := json.Unmarshal(raw, &data); err != nil {
		return HeaderData{}, fmt.Errorf("failed to decode header data: %w", err)
	}
	return data, nil
}

// StreamPrefix returns the header block written before the first answer byte.
func StreamPrefix(references []string) ([]byte, error) {
	if references == nil {
		references = []string{}
	}

	raw, err := json.Marshal(references)
	if err != nil {
		return nil, fmt.Errorf("failed to encode references: %w", err)
	}
	return append(raw, Separator...), nil
}
