package toolflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry holds tools in registration order and executes them with optional timeout,
// semaphore, and panic recovery.
type Registry struct {
	tools   map[string]Tool // wrapped with middlewares, used by Execute
	order   []string
	sem     chan struct{}
	opts    registryOptions
	done    chan struct{}
	running sync.WaitGroup
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		tools: make(map[string]Tool),
		sem:   sem,
		opts:  o,
		done:  make(chan struct{}),
	}
}

// NewRegistryWith creates a Registry holding tools in the given order.
// It fails on the first tool that Register rejects.
func NewRegistryWith(tools []Tool, opts ...RegistryOption) (*Registry, error) {
	r := NewRegistry(opts...)
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool wrapped with the middlewares given by WithMiddleware.
// A second tool with the same name is rejected with ErrDuplicateTool.
// Safe for concurrent use with Execute and other Register calls.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool must not be nil")
	}
	name := t.Name()
	if name == "" {
		return errEmptyToolName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = Chain(t, r.opts.middlewares...)
	r.order = append(r.order, name)
	return nil
}

// GetAllTools returns all registered tools (after middlewares) in registration order.
// This is the order in which tool definitions are offered to the model.
func (r *Registry) GetAllTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// GetTool returns the tool with the given name (after middlewares are applied), or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs one tool call. It never returns an error: failures are reported in
// ToolResult.Error and rendered into ToolResult.Content so they can be shown to the model.
// The after-execution hook (WithOnAfterExecute) is invoked for every call that reached a tool.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (res ToolResult) {
	res = ToolResult{CallID: call.ID, ToolName: call.ToolName}

	r.mu.RLock()
	select {
	case <-r.done:
		r.mu.RUnlock()
		res.Error = ErrShutdown
		res.Content = failureContent(ErrShutdown)
		return res
	default:
	}
	tool, ok := r.tools[call.ToolName]
	if !ok {
		r.mu.RUnlock()
		res.Error = fmt.Errorf("%w: %s", ErrToolNotFound, call.ToolName)
		res.Content = notFoundContent(call.ToolName)
		return res
	}
	r.running.Add(1)
	r.mu.RUnlock()
	defer r.running.Done()

	if err := ctx.Err(); err != nil {
		res.Error = err
		res.Content = failureContent(err)
		return res
	}
	if err := r.acquireSemaphore(ctx); err != nil {
		res.Error = err
		res.Content = failureContent(err)
		return res
	}
	defer r.releaseSemaphore()

	timeout := r.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	// Recover defer is registered after onAfter so it runs first on panic and sets res before the hook runs.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, res, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res.Error = &SystemError{Err: &panicError{p: p}}
				res.Content = failureContent(res.Error)
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) && !IsClientError(err) {
			err = fmt.Errorf("%w: %s after %s", ErrTimeout, call.ToolName, timeout)
		}
		res.Error = err
		res.Content = failureContent(err)
		return res
	}
	res.Content = out
	return res
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// ExecuteBatch runs all calls concurrently and waits for every one of them.
// results[i] always belongs to calls[i], whatever order the calls finish in.
// One failing call does not cancel the others (partial success).
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Shutdown closes the registry for new calls and waits for in-flight executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
