package toolflow

import "context"

// Input is the payload of one Workflow run.
type Input struct {
	Question string
}

// Workflow is the entry point applications use: a model and a tool registry bound
// once and reused for every question.
type Workflow struct {
	orchestrator *Orchestrator
}

// NewWorkflow binds model and registry. Options are passed to NewOrchestrator.
func NewWorkflow(model Model, registry *Registry, opts ...OrchestratorOption) (*Workflow, error) {
	orch, err := NewOrchestrator(model, registry, opts...)
	if err != nil {
		return nil, err
	}
	return &Workflow{orchestrator: orch}, nil
}

// Run answers in.Question.
func (w *Workflow) Run(ctx context.Context, in Input) (string, error) {
	return w.orchestrator.Run(ctx, in.Question)
}

// RunWithResult answers in.Question and returns the full transcript.
func (w *Workflow) RunWithResult(ctx context.Context, in Input) (*RunResult, error) {
	return w.orchestrator.RunWithResult(ctx, in.Question)
}

// AvailableTools lists the registered tool names in registration order.
func (w *Workflow) AvailableTools() []string {
	return w.orchestrator.Registry().Names()
}

// Mode returns the execution mode runs use.
func (w *Workflow) Mode() ExecutionMode {
	return w.orchestrator.Mode()
}
