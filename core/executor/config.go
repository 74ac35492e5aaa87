package executor

import (
	"fmt"
	"time"

	"github.com/leofalp/aigraph/internal/utils"
)

const (
	KindLLM  = "llm"
	KindCode = "code"

	DefaultModel       = "gpt-4.1"
	DefaultCodeTimeout = 30 * time.Second
)

// LLMConfig configures an LLM node.
type LLMConfig struct {
	SystemPrompt         string
	Model                string
	Temperature          float64
	MaxTokens            int
	NeedStructuredOutput bool
	OutputSchema         map[string]any
	Strict               bool
	APIKey               string
	BaseURL              string
}

// CodeConfig configures a code node.
type CodeConfig struct {
	Source  string
	Timeout time.Duration
}

// DecodeLLMConfig reads an LLM node config. Accepted keys: system_prompt,
// model, temperature, max_tokens, need_structured_output (or
// need_structure_output), output_schema, strict, api_key, base_url.
func DecodeLLMConfig(raw map[string]any, strictDefault bool) (LLMConfig, error) {
	r := reader{raw: raw}
	cfg := LLMConfig{
		SystemPrompt:         r.str("system_prompt"),
		Model:                r.str("model"),
		Temperature:          r.num("temperature", 0),
		MaxTokens:            int(r.num("max_tokens", 0)),
		NeedStructuredOutput: r.boolean(false, "need_structured_output", "need_structure_output"),
		OutputSchema:         r.object("output_schema"),
		Strict:               r.boolean(strictDefault, "strict"),
		APIKey:               r.str("api_key"),
		BaseURL:              r.str("base_url"),
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if r.err == nil && cfg.NeedStructuredOutput && len(cfg.OutputSchema) == 0 {
		r.err = fmt.Errorf("need_structured_output is set but output_schema is empty")
	}
	if r.err != nil {
		return LLMConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, r.err)
	}
	return cfg, nil
}

// DecodeCodeConfig reads a code node config. Accepted keys: source (or
// custom_code) and timeout in seconds.
func DecodeCodeConfig(raw map[string]any) (CodeConfig, error) {
	r := reader{raw: raw}
	cfg := CodeConfig{
		Source:  r.str("source", "custom_code"),
		Timeout: time.Duration(r.num("timeout", DefaultCodeTimeout.Seconds()) * float64(time.Second)),
	}
	if r.err == nil && cfg.Source == "" {
		r.err = fmt.Errorf("source is empty")
	}
	if r.err == nil && cfg.Timeout <= 0 {
		r.err = fmt.Errorf("timeout must be positive")
	}
	if r.err != nil {
		return CodeConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, r.err)
	}
	return cfg, nil
}

// reader pulls typed values out of a raw config, keeping the first error.
type reader struct {
	raw map[string]any
	err error
}

func (r *reader) lookup(keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := r.raw[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

func (r *reader) str(keys ...string) string {
	k, v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr && r.err == nil {
		r.err = fmt.Errorf("%s must be a string, got %T", k, v)
	}
	return s
}

func (r *reader) num(key string, def float64) float64 {
	k, v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, isNum := utils.ToFloat64(v)
	if !isNum && r.err == nil {
		r.err = fmt.Errorf("%s must be a number, got %T", k, v)
	}
	return f
}

func (r *reader) boolean(def bool, keys ...string) bool {
	k, v, ok := r.lookup(keys...)
	if !ok {
		return def
	}
	b, isBool := v.(bool)
	if !isBool && r.err == nil {
		r.err = fmt.Errorf("%s must be a boolean, got %T", k, v)
	}
	return b
}

func (r *reader) object(key string) map[string]any {
	k, v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	m, isMap := v.(map[string]any)
	if !isMap && r.err == nil {
		r.err = fmt.Errorf("%s must be an object, got %T", k, v)
	}
	return m
}
