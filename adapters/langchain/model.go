// Package langchain connects toolflow to any github.com/tmc/langchaingo llms.Model.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/skosovsky/toolflow"
)

// Model is a toolflow.Model backed by a langchaingo model.
type Model struct {
	llm  llms.Model
	opts []llms.CallOption
}

// NewModel wraps llm. opts (temperature, max tokens, ...) are sent with every request.
func NewModel(llm llms.Model, opts ...llms.CallOption) *Model {
	return &Model{llm: llm, opts: opts}
}

// Generate sends the conversation and the tool definitions in one request.
func (m *Model) Generate(ctx context.Context, conv toolflow.Conversation, tools []toolflow.Tool) (toolflow.Response, error) {
	opts := append([]llms.CallOption(nil), m.opts...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(ToTools(tools)))
	}
	resp, err := m.llm.GenerateContent(ctx, ToMessages(conv), opts...)
	if err != nil {
		return toolflow.Response{}, fmt.Errorf("generate content: %w", err)
	}
	return FromContentResponse(resp)
}

var _ toolflow.Model = (*Model)(nil)
