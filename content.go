package toolflow

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Content is the payload of a model message. It is one of Text, Fragments or Opaque.
type Content interface {
	isContent()
}

// Text is plain text content.
type Text string

// Fragments is content delivered in pieces. Elements are Text or Opaque.
type Fragments []Content

// Opaque is structured content the orchestrator does not interpret.
type Opaque struct {
	Value any
}

func (Text) isContent()      {}
func (Fragments) isContent() {}
func (Opaque) isContent()    {}

// NormalizeContent converts model content to plain text: Text verbatim, Fragments
// joined with "\n" (non-text fragments JSON-encoded), Opaque JSON-encoded.
// A nil Content yields "".
func NormalizeContent(c Content) string {
	switch v := c.(type) {
	case nil:
		return ""
	case Text:
		return string(v)
	case Fragments:
		parts := make([]string, len(v))
		for i, f := range v {
			if t, ok := f.(Text); ok {
				parts[i] = string(t)
				continue
			}
			parts[i] = mustEncodeJSONText(rawValue(f))
		}
		return strings.Join(parts, "\n")
	case Opaque:
		return mustEncodeJSONText(v.Value)
	default:
		return mustEncodeJSONText(v)
	}
}

// rawValue unwraps content into plain Go values for encoding.
func rawValue(c Content) any {
	switch v := c.(type) {
	case Text:
		return string(v)
	case Opaque:
		return v.Value
	case Fragments:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = rawValue(f)
		}
		return out
	default:
		return v
	}
}

// encodeJSONText encodes v compactly without HTML escaping.
func encodeJSONText(v any) (string, error) {
	b, err := json.MarshalNoEscape(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mustEncodeJSONText(v any) string {
	s, err := encodeJSONText(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
