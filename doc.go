// Package toolflow runs tool-calling conversations against a language model.
//
// # Overview
//
// A user question goes to the model together with the definitions of every
// registered tool. When the model answers with tool calls, each call is
// dispatched by name, its output is appended to the conversation as a tool
// message, and the model is consulted again. The loop ends when the model
// answers without tool calls or after a bounded number of rounds.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) → Tool →
// Registry → Orchestrator (model ↔ tools) → final answer.
//
// # Key concepts
//
//   - Single Source of Truth: one set of struct tags drives both the schema sent
//     to the model and the validation of incoming arguments.
//   - Soft failures: unknown tools and failing handlers become tool messages the
//     model can read; only model failures abort a run.
//   - Execution modes: Sequential runs calls one after another, Parallel runs a
//     round concurrently and still appends results in request order.
//
// See Tool, ToolCall, ToolResult and Conversation for the core types, and
// NewTool, NewRegistry and NewOrchestrator for setup.
//
// # Example
//
//	type Args struct { City string `json:"city" description:"City name"` }
//	tool, err := toolflow.NewTool("weather", "Get weather", func(_ context.Context, a Args) (string, error) {
//	    return "Sunny, 22°C in " + a.City, nil
//	})
//	if err != nil { ... }
//	reg := toolflow.NewRegistry()
//	if err := reg.Register(tool); err != nil { ... }
//	orch, err := toolflow.NewOrchestrator(model, reg, toolflow.WithParallel())
//	answer, err := orch.Run(ctx, "What's the weather in Paris?")
package toolflow
