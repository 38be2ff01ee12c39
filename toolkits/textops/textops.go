// Package textops provides string_operations: case conversion, reversal and length of a text.
package textops

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/skosovsky/toolflow"
)

// Name is the registered tool name.
const Name = "string_operations"

const description = "Performs string operations: uppercase, lowercase, reverse, length"

// UnknownOperation is returned for an operation outside the enum.
const UnknownOperation = "Error: Unknown operation"

// Args are the string_operations arguments.
type Args struct {
	Operation string `json:"operation" description:"The string operation to perform" enum:"uppercase,lowercase,reverse,length"`
	Text      string `json:"text" description:"The text to process"`
}

// New returns the string_operations tool.
func New(opts ...toolflow.ToolOption) (toolflow.Tool, error) {
	return toolflow.NewTool(Name, description, func(_ context.Context, args Args) (string, error) {
		return Apply(args), nil
	}, opts...)
}

// Apply runs args.Operation on args.Text.
func Apply(args Args) string {
	switch args.Operation {
	case "uppercase":
		return strings.ToUpper(args.Text)
	case "lowercase":
		return strings.ToLower(args.Text)
	case "reverse":
		r := []rune(args.Text)
		slices.Reverse(r)
		return string(r)
	case "length":
		return strconv.Itoa(Length(args.Text))
	default:
		return UnknownOperation
	}
}

// Length counts UTF-16 code units, so "a😀" has length 3.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
