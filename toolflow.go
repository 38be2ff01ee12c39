package toolflow

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is the contract for a model-callable instrument.
// It is provider-agnostic (no knowledge of OpenAI, OpenRouter, etc.).
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema as map (compatible with LLM tool definitions).
	Parameters() map[string]any
	// Execute runs the tool with the raw JSON arguments produced by the model and
	// returns the text that is handed back to the model.
	Execute(ctx context.Context, argsJSON []byte) (string, error)
}

// ToolMetadata is implemented by tools created with NewTool and NewDynamicTool.
// Registry uses Timeout() to override the default execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
}

// ToolCall is a single execution request (as produced by the model).
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON payload of arguments
}

// wellFormed reports whether the call carries both an id and a tool name.
func (c ToolCall) wellFormed() bool {
	return c.ID != "" && c.ToolName != ""
}

// ToolResult is the outcome of one ToolCall. Content is always set: on failure it
// holds the error text that is shown to the model, and Error holds the cause.
type ToolResult struct {
	CallID   string
	ToolName string
	Content  string
	Error    error
}
