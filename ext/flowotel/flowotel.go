// Package flowotel traces tool executions and model calls with OpenTelemetry.
package flowotel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/toolflow"
)

const instrumentationName = "github.com/skosovsky/toolflow/ext/flowotel"

const (
	AttrToolName     = attribute.Key("gen_ai.tool.name")
	AttrArgsBytes    = attribute.Key("toolflow.tool.args_bytes")
	AttrResultBytes  = attribute.Key("toolflow.tool.result_bytes")
	AttrClientError  = attribute.Key("toolflow.tool.client_error")
	AttrMessages     = attribute.Key("toolflow.model.messages")
	AttrToolsOffered = attribute.Key("toolflow.model.tools")
	AttrToolCalls    = attribute.Key("toolflow.model.tool_calls")
)

// Middleware returns a toolflow.Middleware that wraps every execution in a span
// named "execute_tool <name>". Failed executions record the error and set the status.
func Middleware(tp trace.TracerProvider) toolflow.Middleware {
	tracer := tp.Tracer(instrumentationName)
	return func(next toolflow.Tool) toolflow.Tool {
		return &tracedTool{next: next, tracer: tracer}
	}
}

type tracedTool struct {
	next   toolflow.Tool
	tracer trace.Tracer
}

func (t *tracedTool) Name() string               { return t.next.Name() }
func (t *tracedTool) Description() string        { return t.next.Description() }
func (t *tracedTool) Parameters() map[string]any { return t.next.Parameters() }
func (t *tracedTool) Unwrap() toolflow.Tool      { return t.next }

func (t *tracedTool) Timeout() time.Duration {
	if m, ok := t.next.(toolflow.ToolMetadata); ok {
		return m.Timeout()
	}
	return 0
}

func (t *tracedTool) Tags() []string {
	if m, ok := t.next.(toolflow.ToolMetadata); ok {
		return m.Tags()
	}
	return nil
}

func (t *tracedTool) Execute(ctx context.Context, args []byte) (string, error) {
	ctx, span := t.tracer.Start(ctx, "execute_tool "+t.next.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrToolName.String(t.next.Name()), AttrArgsBytes.Int(len(args))),
	)
	defer span.End()

	out, err := t.next.Execute(ctx, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(AttrClientError.Bool(toolflow.IsClientError(err)))
		return out, err
	}
	span.SetAttributes(AttrResultBytes.Int(len(out)))
	return out, nil
}

// Model wraps m so that every Generate call runs in a "chat" span.
func Model(tp trace.TracerProvider, m toolflow.Model) toolflow.Model {
	tracer := tp.Tracer(instrumentationName)
	return toolflow.ModelFunc(func(ctx context.Context, conv toolflow.Conversation, tools []toolflow.Tool) (toolflow.Response, error) {
		ctx, span := tracer.Start(ctx, "chat",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(AttrMessages.Int(len(conv)), AttrToolsOffered.Int(len(tools))),
		)
		defer span.End()

		resp, err := m.Generate(ctx, conv, tools)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return resp, err
		}
		span.SetAttributes(AttrToolCalls.Int(len(resp.ToolCalls)))
		return resp, nil
	})
}
