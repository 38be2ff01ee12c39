// Package testutil provides test helpers for toolflow (MockTool, ScriptedModel).
package testutil

import (
	"context"

	"github.com/skosovsky/toolflow"
)

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte) (string, error)
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or an empty object schema).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute runs ExecuteFn if set, otherwise returns "".
func (m *MockTool) Execute(ctx context.Context, args []byte) (string, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return "", nil
}

// Ensure MockTool implements Tool.
var _ toolflow.Tool = (*MockTool)(nil)
