package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Payload is a search result document kept both as the exact bytes received
// and as its decoded form. It is not modified after fetch.
type Payload struct {
	raw      json.RawMessage
	document interface{}
}

// ErrTrailingData is returned when a JSON value is followed by more input.
var ErrTrailingData = errors.New("invalid data after top-level JSON value")

// DecodeJSON decodes exactly one JSON value. Numbers are kept as json.Number
// so integers wider than a float64 mantissa survive re-encoding.
func DecodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return doc, nil
}

// NewPayload decodes raw JSON. Numbers keep their original text.
func NewPayload(raw []byte) (*Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("payload is empty")
	}
	doc, err := DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &Payload{raw: cp, document: doc}, nil
}

// Raw returns the bytes the payload was built from.
func (p *Payload) Raw() []byte {
	return p.raw
}

// Document returns the decoded value.
func (p *Payload) Document() interface{} {
	return p.document
}

// ExpectedEntries is the length of the top-level "data" array, or 0 when the
// payload is not an object or has no such array.
func (p *Payload) ExpectedEntries() int {
	if p == nil {
		return 0
	}
	obj, ok := p.document.(map[string]interface{})
	if !ok {
		return 0
	}
	data, ok := obj["data"].([]interface{})
	if !ok {
		return 0
	}
	return len(data)
}

// Compact returns the payload serialized without insignificant whitespace.
func (p *Payload) Compact() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, p.raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Indented returns the payload pretty-printed with a two-space indent.
func (p *Payload) Indented() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil || len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.Compact()
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	parsed, err := NewPayload(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// Tool capabilities enabled on every completion request.
const (
	ToolWebSearch     = "web_search"
	ToolXSearch       = "x_search"
	ToolCodeExecution = "code_execution"
)

// CompletionRequest is the provider-neutral request handed to the completion
// stream. A new value is built for every attempt.
type CompletionRequest struct {
	Model             string   `json:"model"`
	System            string   `json:"system"`
	User              string   `json:"user"`
	Tools             []string `json:"tools"`
	ParallelToolCalls bool     `json:"parallelToolCalls"`
}

// ToolCallEvent reports a tool invocation seen in a stream delta. Function
// fields are set only for function calls.
type ToolCallEvent struct {
	Type         string `json:"type"`
	FunctionName string `json:"functionName,omitempty"`
	Arguments    string `json:"arguments,omitempty"`
}

// IsFunction reports whether the event is a named function call.
func (e ToolCallEvent) IsFunction() bool {
	return e.FunctionName != ""
}

// SummaryRecord is the document written to the summary file and the store.
// Summary holds the parsed JSON array, or the raw text when extraction is
// disabled.
type SummaryRecord struct {
	Model   string      `json:"model" bson:"model"`
	Summary interface{} `json:"summary" bson:"summary"`
}

// EntryCount returns the number of array entries in Summary, or -1 when the
// summary is not an array.
func (r *SummaryRecord) EntryCount() int {
	if arr, ok := r.Summary.([]interface{}); ok {
		return len(arr)
	}
	return -1
}
