package executor

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/leofalp/aigraph/core/parse"
	"github.com/leofalp/aigraph/core/schema"
	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/ai"
	"github.com/leofalp/aigraph/providers/ai/openai"
	"github.com/leofalp/aigraph/providers/observability"
)

var schemaNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// LLMExecutor sends its input to a chat model.
//
// Input handling: a string becomes one user message; a list is read as
// role/content entries (invalid entries are skipped with a warning); a map
// contributes its "messages" list. The system prompt always comes first.
//
// The result is the response text, or, with structured output enabled, the
// response parsed and validated against the output model.
type LLMExecutor struct {
	node   string
	cfg    LLMConfig
	model  *schema.Model
	format *ai.ResponseFormat

	once     sync.Once
	provider ai.Provider
}

// NewLLMFromConfig is the registry factory for the "llm" kind.
func NewLLMFromConfig(raw map[string]any, env Env) (Executor, error) {
	cfg, err := DecodeLLMConfig(raw, env.StrictDefault)
	if err != nil {
		return nil, err
	}
	return NewLLMExecutor(env.Node, cfg, env)
}

// NewLLMExecutor builds the output model up front so schema errors surface
// at compile time. The provider is created on first use unless env
// carries one.
func NewLLMExecutor(node string, cfg LLMConfig, env Env) (*LLMExecutor, error) {
	e := &LLMExecutor{node: node, cfg: cfg, provider: env.Provider}
	if !cfg.NeedStructuredOutput {
		return e, nil
	}

	name := schemaName(node)
	def, err := schema.ParseDefinition(name, cfg.OutputSchema, cfg.Strict)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	factory := env.Schemas
	if factory == nil {
		factory = schema.NewFactory()
	}
	model, err := factory.Build(def)
	if err != nil {
		return nil, err
	}
	e.model = model
	e.format = &ai.ResponseFormat{
		Name:         name,
		OutputSchema: model.JSONSchema(),
		Strict:       cfg.Strict,
	}
	return e, nil
}

// Model returns the structured output model, or nil.
func (e *LLMExecutor) Model() *schema.Model { return e.model }

func (e *LLMExecutor) client() ai.Provider {
	e.once.Do(func() {
		if e.provider != nil {
			return
		}
		p := openai.NewOpenAIProvider()
		if e.cfg.APIKey != "" {
			p.WithAPIKey(e.cfg.APIKey)
		}
		if e.cfg.BaseURL != "" {
			p.WithBaseURL(e.cfg.BaseURL)
		}
		e.provider = p
	})
	return e.provider
}

// Execute implements Executor.
func (e *LLMExecutor) Execute(ctx context.Context, input any) (any, error) {
	obs := observability.ObserverFromContext(ctx)

	req := ai.ChatRequest{
		Model:          e.cfg.Model,
		SystemPrompt:   e.cfg.SystemPrompt,
		Messages:       normalizeMessages(ctx, obs, input),
		ResponseFormat: e.format,
		GenerationConfig: &ai.GenerationConfig{
			Temperature: utils.Ptr(e.cfg.Temperature),
			MaxTokens:   e.cfg.MaxTokens,
		},
	}

	if obs != nil {
		obs.Debug(ctx, "sending llm request",
			observability.String(observability.AttrWorkflowNode, e.node),
			observability.String(observability.AttrLLMModel, req.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(req.Messages)),
			observability.Bool(observability.AttrLLMStructured, e.format != nil),
		)
	}

	start := time.Now()
	resp, err := e.client().SendMessage(ctx, req)
	if obs != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		obs.Counter(observability.MetricLLMRequestCount).Add(ctx, 1,
			observability.String(observability.AttrLLMModel, req.Model),
			observability.String(observability.AttrStatus, status),
		)
		obs.Trace(ctx, "llm request finished",
			observability.String(observability.AttrWorkflowNode, e.node),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	if resp.Refusal != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefusal, resp.Refusal)
	}

	if e.model == nil {
		return resp.Content, nil
	}
	return e.structured(resp.Content)
}

// structured parses content and validates it against the output model.
// Payloads wrapped as {"type":..., "value":...} are unwrapped on a second
// attempt.
func (e *LLMExecutor) structured(content string) (any, error) {
	raw, err := parse.Value(content)
	if err != nil {
		return nil, fmt.Errorf("structured output: %w", err)
	}
	out, err := e.model.Validate(raw)
	if err == nil {
		return out, nil
	}
	if retry, retryErr := e.model.Validate(parse.Unwrap(raw)); retryErr == nil {
		return retry, nil
	}
	return nil, fmt.Errorf("structured output: %w", err)
}

func schemaName(node string) string {
	name := schemaNameUnsafe.ReplaceAllString(node, "_")
	if name == "" {
		name = "response"
	}
	return name + "_output"
}
