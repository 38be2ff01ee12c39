// Package calculator provides the calculator tool: the four basic arithmetic operations
// on two numbers.
package calculator

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/skosovsky/toolflow"
)

// Name is the registered tool name.
const Name = "calculator"

const description = "Performs basic arithmetic operations: add, subtract, multiply, divide"

// Result texts for arithmetic that cannot be performed.
const (
	DivisionByZero   = "Error: Division by zero"
	UnknownOperation = "Error: Unknown operation"
)

// Args are the calculator arguments.
type Args struct {
	Operation string  `json:"operation" description:"The arithmetic operation to perform" enum:"add,subtract,multiply,divide"`
	A         float64 `json:"a" description:"First number"`
	B         float64 `json:"b" description:"Second number"`
}

// New returns the calculator tool.
func New(opts ...toolflow.ToolOption) (toolflow.Tool, error) {
	return toolflow.NewTool(Name, description, func(_ context.Context, args Args) (string, error) {
		return Calculate(args), nil
	}, opts...)
}

// Calculate applies args.Operation to A and B and renders the result.
// Division by zero and unknown operations yield an error text, not an error.
func Calculate(args Args) string {
	switch args.Operation {
	case "add":
		return FormatNumber(args.A + args.B)
	case "subtract":
		return FormatNumber(args.A - args.B)
	case "multiply":
		return FormatNumber(args.A * args.B)
	case "divide":
		if args.B == 0 {
			return DivisionByZero
		}
		return FormatNumber(args.A / args.B)
	default:
		return UnknownOperation
	}
}

// FormatNumber renders f the way ECMAScript Number::toString does: integral values
// without a fraction, plain decimals between 1e-6 and 1e21, exponent form outside.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // also -0
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
