package toolflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

var errEmptyToolName = errors.New("tool name must not be empty")

// tool is the internal implementation of Tool built by NewTool or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	execute     func(context.Context, []byte) (string, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed function. Schema and validation are delegated to Extractor[T].
// Execute runs ParseAndValidate, then fn. A string (or []byte) result is handed to the model
// verbatim; any other result is JSON-encoded. Handler errors are returned unchanged so their
// message reaches the model.
// Returns an error if schema generation fails (e.g. unsupported type).
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	if name == "" {
		return nil, errEmptyToolName
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: handler must not be nil", name)
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	execute := func(ctx context.Context, argsJSON []byte) (string, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return "", err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return "", err
		}
		return renderOutput(res)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		execute:     execute,
		opts:        o,
	}, nil
}

// NewDynamicTool creates a Tool from a raw JSON Schema map and a function that receives
// validated JSON. Useful for tools whose shape is only known at runtime. Layer 1
// (schema) validation only. schemaMap and fn must be non-nil.
// The provided schemaMap is not mutated; a deep copy is made before any modifications (e.g. WithStrict).
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, argsJSON []byte) (string, error),
	opts ...ToolOption,
) (Tool, error) {
	if name == "" {
		return nil, errEmptyToolName
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if schemaMap == nil {
		return nil, errors.New("dynamic schema map must not be nil")
	}
	if fn == nil {
		return nil, errors.New("dynamic tool handler must not be nil")
	}
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to deep copy schema map: %w", err)
	}
	var schemaCopy map[string]any
	if err := json.Unmarshal(data, &schemaCopy); err != nil {
		return nil, fmt.Errorf("failed to deep copy schema map: %w", err)
	}
	if o.strict {
		applyStrictMode(schemaCopy)
	}
	stripSchemaIDs(schemaCopy)
	compiled, err := compileRawSchema(schemaCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dynamic schema: %w", err)
	}
	execute := func(ctx context.Context, argsJSON []byte) (string, error) {
		v, err := decodeInstance(argsJSON)
		if err != nil {
			return "", err
		}
		if err := validateAgainstSchema(compiled, v); err != nil {
			return "", err
		}
		if len(argsJSON) == 0 {
			argsJSON = emptyArgs
		}
		return fn(ctx, argsJSON)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaCopy,
		execute:     execute,
		opts:        o,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, argsJSON []byte) (string, error) {
	return t.execute(ctx, argsJSON)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }

// renderOutput turns a handler result into the text shown to the model.
func renderOutput(res any) (string, error) {
	switch out := res.(type) {
	case string:
		return out, nil
	case []byte:
		return string(out), nil
	}
	s, err := encodeJSONText(res)
	if err != nil {
		return "", &SystemError{Err: err}
	}
	return s, nil
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
