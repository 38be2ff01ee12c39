// Package openrouter builds langchaingo clients and toolflow workflows for the
// OpenRouter chat-completions API.
package openrouter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/skosovsky/toolflow"
	"github.com/skosovsky/toolflow/adapters/langchain"
	"github.com/skosovsky/toolflow/config"
	"github.com/skosovsky/toolflow/toolkits"
)

// ErrMissingAPIKey is returned by every constructor when no API key is configured.
var ErrMissingAPIKey = config.ErrMissingAPIKey

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		req.Header[k] = vs
	}
	return t.base.RoundTrip(req)
}

// HTTPClient returns the client NewLLM uses: it sends HTTP-Referer and X-Title
// on every request and honours cfg.Timeout.
func HTTPClient(cfg config.OpenRouter, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	h := http.Header{}
	h.Set("HTTP-Referer", cfg.HTTPReferer)
	h.Set("X-Title", cfg.Title)
	return &http.Client{
		Transport: &headerTransport{base: base, headers: h},
		Timeout:   cfg.Timeout,
	}
}

// NewLLM returns an OpenAI-compatible langchaingo client pointed at cfg.BaseURL.
func NewLLM(cfg config.OpenRouter, base http.RoundTripper) (*openai.LLM, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(HTTPClient(cfg, base)),
	)
}

// NewModel returns a toolflow.Model over NewLLM sending cfg.Temperature.
func NewModel(cfg config.OpenRouter, base http.RoundTripper) (*langchain.Model, error) {
	llm, err := NewLLM(cfg, base)
	if err != nil {
		return nil, err
	}
	return langchain.NewModel(llm, llms.WithTemperature(cfg.Temperature)), nil
}

// NewPromptChain returns the single-question chain over NewLLM.
func NewPromptChain(cfg config.OpenRouter, base http.RoundTripper) (*langchain.PromptChain, error) {
	llm, err := NewLLM(cfg, base)
	if err != nil {
		return nil, err
	}
	return langchain.NewPromptChain(llm, llms.WithTemperature(cfg.Temperature)), nil
}

// Options configures NewWorkflow.
type Options struct {
	// Registry defaults to the built-in toolkits.
	Registry *toolflow.Registry
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
	// RegistryOptions apply when Registry is nil.
	RegistryOptions []toolflow.RegistryOption
}

// NewWorkflow wires the default stack from cfg: OpenRouter model, the default tools
// and the orchestrator settings. It fails fast on a missing API key.
func NewWorkflow(cfg config.Config, o Options) (*toolflow.Workflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := NewModel(cfg.OpenRouter, o.Transport)
	if err != nil {
		return nil, err
	}
	reg := o.Registry
	if reg == nil {
		opts := []toolflow.RegistryOption{
			toolflow.WithMaxConcurrency(cfg.Orchestrator.MaxConcurrency),
			toolflow.WithDefaultTimeout(cfg.Orchestrator.ToolTimeout),
		}
		reg, err = toolkits.DefaultRegistry(append(opts, o.RegistryOptions...)...)
		if err != nil {
			return nil, err
		}
	}
	orchOpts := []toolflow.OrchestratorOption{toolflow.WithMaxIterations(cfg.Orchestrator.MaxIterations)}
	if cfg.Orchestrator.Parallel {
		orchOpts = append(orchOpts, toolflow.WithParallel())
	}
	if o.Logger != nil {
		orchOpts = append(orchOpts, toolflow.WithLogger(o.Logger))
	}
	return toolflow.NewWorkflow(model, reg, orchOpts...)
}

// Ask runs the prompt chain once; it is the CLI's single-question path.
func Ask(ctx context.Context, cfg config.Config, transport http.RoundTripper, topic, question string) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	chain, err := NewPromptChain(cfg.OpenRouter, transport)
	if err != nil {
		return "", err
	}
	return chain.Run(ctx, topic, question)
}
