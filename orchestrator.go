package toolflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// MaxIterationsMessage is the output of a run that used up its iteration budget.
const MaxIterationsMessage = "Maximum iterations reached. Please try a simpler question."

// Model is the gateway to a language model. Generate receives the whole conversation
// so far and the tools on offer, and returns either final content or tool calls.
// Implementations must not retain or mutate conv.
type Model interface {
	Generate(ctx context.Context, conv Conversation, tools []Tool) (Response, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, conv Conversation, tools []Tool) (Response, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, conv Conversation, tools []Tool) (Response, error) {
	return f(ctx, conv, tools)
}

// Response is one model turn. A Response without ToolCalls is a final answer.
type Response struct {
	Content   Content
	ToolCalls []ToolCall
}

// State is the position of a run in the tool-calling loop.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTools
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RunResult is the transcript of a finished run.
type RunResult struct {
	RunID      string
	Output     string
	State      State // StateDone or StateExhausted
	Iterations int   // completed tool rounds
	// Conversation holds every message of the run. The final assistant answer is not part of it.
	Conversation Conversation
}

// Orchestrator drives the loop between a Model and the tools of a Registry.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	model    Model
	registry *Registry
	opts     orchestratorOptions
}

// NewOrchestrator creates an Orchestrator. Sequential mode and DefaultMaxIterations apply
// unless overridden by opts.
func NewOrchestrator(model Model, registry *Registry, opts ...OrchestratorOption) (*Orchestrator, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if registry == nil {
		return nil, ErrNoRegistry
	}
	o := orchestratorOptions{
		mode:          Sequential,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Orchestrator{model: model, registry: registry, opts: o}, nil
}

// Mode returns the configured execution mode.
func (o *Orchestrator) Mode() ExecutionMode { return o.opts.mode }

// Registry returns the registry tools are dispatched to.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// runState is owned by exactly one run.
type runState struct {
	id        string
	conv      Conversation
	iteration int
	state     State
	logger    *slog.Logger
}

// Run answers question and returns the final text. Tool failures never fail a run;
// model failures do.
func (o *Orchestrator) Run(ctx context.Context, question string) (string, error) {
	res, err := o.RunWithResult(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// RunWithResult is Run with the full transcript.
func (o *Orchestrator) RunWithResult(ctx context.Context, question string) (*RunResult, error) {
	id := uuid.NewString()
	st := &runState{
		id:     id,
		conv:   Conversation{UserMessage(question)},
		state:  StateAwaitingModel,
		logger: o.opts.logger.With("component", "orchestrator", "run_id", id),
	}
	tools := o.registry.GetAllTools()
	st.logger.InfoContext(ctx, "run start", "mode", o.opts.mode.String(), "tools", len(tools))

	for st.iteration < o.opts.maxIterations {
		st.state = StateAwaitingModel
		st.logger.DebugContext(ctx, "iteration", "n", st.iteration+1)

		resp, err := o.model.Generate(ctx, st.conv.Clone(), tools)
		if err != nil {
			return nil, fmt.Errorf("model generate (iteration %d): %w", st.iteration+1, err)
		}
		if len(resp.ToolCalls) == 0 {
			st.state = StateDone
			out := NormalizeContent(resp.Content)
			st.logger.InfoContext(ctx, "final answer", "iterations", st.iteration, "chars", len(out))
			return st.result(out), nil
		}

		st.conv = append(st.conv, AssistantMessage(resp.Content, resp.ToolCalls))
		st.state = StateExecutingTools
		for _, r := range o.executeRound(ctx, st.logger, resp.ToolCalls) {
			st.conv = append(st.conv, ToolMessage(r))
		}
		st.iteration++
	}

	st.state = StateExhausted
	st.logger.WarnContext(ctx, "max iterations reached", "iterations", st.iteration)
	return st.result(MaxIterationsMessage), nil
}

func (st *runState) result(output string) *RunResult {
	return &RunResult{
		RunID:        st.id,
		Output:       output,
		State:        st.state,
		Iterations:   st.iteration,
		Conversation: st.conv,
	}
}

// executeRound resolves the calls of one model turn. Calls without an id or a tool
// name are dropped; the rest get exactly one result each, in request order.
func (o *Orchestrator) executeRound(ctx context.Context, logger *slog.Logger, calls []ToolCall) []ToolResult {
	valid := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		if !call.wellFormed() {
			logger.DebugContext(ctx, "skipping malformed tool call", "id", call.ID, "tool", call.ToolName)
			continue
		}
		logger.InfoContext(ctx, "calling tool", "tool", call.ToolName, "id", call.ID, "args", string(call.Args))
		valid = append(valid, call)
	}

	var results []ToolResult
	switch o.opts.mode {
	case Parallel:
		results = o.registry.ExecuteBatch(ctx, valid)
	default:
		results = make([]ToolResult, 0, len(valid))
		for _, call := range valid {
			results = append(results, o.registry.Execute(ctx, call))
		}
	}

	for _, r := range results {
		if r.Error != nil {
			logger.WarnContext(ctx, "tool failed", "tool", r.ToolName, "id", r.CallID, "error", r.Error)
			continue
		}
		logger.InfoContext(ctx, "tool result", "tool", r.ToolName, "id", r.CallID, "content", r.Content)
	}
	return results
}
