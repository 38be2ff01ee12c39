package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/skosovsky/toolflow"
)

// Step is one scripted model turn.
type Step struct {
	Response toolflow.Response
	Err      error
}

// FinalAnswer scripts a turn that ends the run with text.
func FinalAnswer(text string) Step {
	return Step{Response: toolflow.Response{Content: toolflow.Text(text)}}
}

// RequestTools scripts a turn that asks for calls.
func RequestTools(calls ...toolflow.ToolCall) Step {
	return Step{Response: toolflow.Response{Content: toolflow.Text(""), ToolCalls: calls}}
}

// Fail scripts a turn where the model returns err.
func Fail(err error) Step {
	return Step{Err: err}
}

// Call builds a ToolCall; args is raw JSON.
func Call(id, name, args string) toolflow.ToolCall {
	return toolflow.ToolCall{ID: id, ToolName: name, Args: json.RawMessage(args)}
}

// ScriptedModel is a toolflow.Model that replays Steps in order and records what it saw.
// Once the script is exhausted the last step repeats.
// Safe for concurrent use.
type ScriptedModel struct {
	mu    sync.Mutex
	steps []Step
	convs []toolflow.Conversation
	tools [][]string
}

// NewScriptedModel returns a model replaying steps.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// Generate records conv and the offered tool names and returns the next step.
func (m *ScriptedModel) Generate(ctx context.Context, conv toolflow.Conversation, tools []toolflow.Tool) (toolflow.Response, error) {
	if err := ctx.Err(); err != nil {
		return toolflow.Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	n := len(m.convs)
	m.convs = append(m.convs, conv.Clone())
	m.tools = append(m.tools, names)
	if len(m.steps) == 0 {
		return toolflow.Response{Content: toolflow.Text("")}, nil
	}
	step := m.steps[min(n, len(m.steps)-1)]
	return step.Response, step.Err
}

// Calls returns how many times Generate was invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.convs)
}

// Conversation returns the conversation passed on the i-th call.
func (m *ScriptedModel) Conversation(i int) toolflow.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.convs[i]
}

// ToolNames returns the tool names offered on the i-th call.
func (m *ScriptedModel) ToolNames(i int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools[i]
}

var _ toolflow.Model = (*ScriptedModel)(nil)
