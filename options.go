package toolflow

import (
	"context"
	"log/slog"
	"time"
)

// toolOptions hold optional tool settings (timeout, strict, tags).
type toolOptions struct {
	strict  bool
	timeout time.Duration
	tags    []string
}

// ToolOption configures a tool (e.g. WithStrict, WithTimeout).
type ToolOption func(*toolOptions)

// WithStrict sets strict mode for schema: additionalProperties: false for all objects,
// and all properties become required. Use for OpenAI Structured Outputs compatibility.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// WithTimeout sets a per-tool timeout, honored by Registry.Execute.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery and tracing).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	middlewares    []Middleware
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ToolResult, time.Duration)
}

// WithDefaultTimeout sets the default execution timeout for tools. Zero (the default)
// means calls are bounded only by the caller's context.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent tool executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency, the default).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError). Enabled by default.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithMiddleware applies middlewares to every registered tool (first is outermost).
func WithMiddleware(mws ...Middleware) RegistryOption {
	return func(o *registryOptions) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ToolResult, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// ExecutionMode selects how the tool calls of one round are run.
type ExecutionMode int

const (
	// Sequential runs calls one at a time, in request order.
	Sequential ExecutionMode = iota
	// Parallel runs all calls of a round concurrently.
	Parallel
)

func (m ExecutionMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// DefaultMaxIterations bounds the number of model rounds in one run.
const DefaultMaxIterations = 5

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorOptions)

type orchestratorOptions struct {
	mode          ExecutionMode
	maxIterations int
	logger        *slog.Logger
}

// WithExecutionMode sets the execution mode (Sequential by default).
func WithExecutionMode(mode ExecutionMode) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.mode = mode
	}
}

// WithParallel is shorthand for WithExecutionMode(Parallel).
func WithParallel() OrchestratorOption {
	return WithExecutionMode(Parallel)
}

// WithMaxIterations overrides DefaultMaxIterations. Values <= 0 keep the default.
func WithMaxIterations(n int) OrchestratorOption {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithLogger sets the logger used for progress lines. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *orchestratorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
