package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/observability"
)

// allowedPackages is the standard library surface visible to snippets.
// Nothing touching the filesystem, network, processes or unsafe is listed.
var allowedPackages = []string{
	"bytes", "encoding/base64", "encoding/json", "errors", "fmt", "maps",
	"math", "regexp", "slices", "sort", "strconv", "strings", "time",
	"unicode", "unicode/utf8",
}

var sandboxSymbols = func() interp.Exports {
	allowed := make(map[string]bool, len(allowedPackages))
	for _, p := range allowedPackages {
		allowed[p] = true
	}
	out := interp.Exports{}
	for key, symbols := range stdlib.Symbols {
		// keys are "import/path/pkgname"
		idx := strings.LastIndex(key, "/")
		if idx > 0 && allowed[key[:idx]] {
			out[key] = symbols
		}
	}
	return out
}()

// CodeExecutor runs a Go snippet in a restricted yaegi interpreter.
//
// The snippet sees its input as input_data (type any). If it declares
//
//	func process(input any) any
//
// (optionally returning a second error value, or taking a concrete input
// type that input_data is asserted to) the result is process's return value
// and the snippet may hold only declarations. Otherwise its statements run
// in order and the result is the value left in result, or nil if it is never
// set. Imports may precede either form. Each call gets a fresh interpreter,
// so snippets share no state between invocations.
type CodeExecutor struct {
	node    string
	source  string
	timeout time.Duration
}

// NewCodeFromConfig is the registry factory for the "code" kind.
func NewCodeFromConfig(raw map[string]any, env Env) (Executor, error) {
	cfg, err := DecodeCodeConfig(raw)
	if err != nil {
		return nil, err
	}
	return NewCodeExecutor(env.Node, cfg)
}

// NewCodeExecutor returns an executor for cfg.
func NewCodeExecutor(node string, cfg CodeConfig) (*CodeExecutor, error) {
	if strings.TrimSpace(cfg.Source) == "" {
		return nil, fmt.Errorf("%w: source is empty", ErrInvalidConfig)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCodeTimeout
	}
	return &CodeExecutor{node: node, source: cfg.Source, timeout: timeout}, nil
}

// Execute implements Executor. A snippet still running when the timeout
// fires yields a *TimeoutError; a snippet that fails yields a *RuntimeError.
func (e *CodeExecutor) Execute(ctx context.Context, input any) (any, error) {
	program, hasProcess, err := buildProgram(e.source)
	if err != nil {
		return nil, &RuntimeError{Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout bytes.Buffer
	i := interp.New(interp.Options{Stdout: &stdout, Stderr: &stdout})
	if err := i.Use(sandboxSymbols); err != nil {
		return nil, fmt.Errorf("code sandbox: %w", err)
	}

	holder := input
	var (
		out      any
		failure  error
		returned bool
	)
	set := func(v any, err error) {
		out, failure, returned = v, err, true
	}
	if err := i.Use(interp.Exports{
		"aigraph/input/input": {
			"Value": reflect.ValueOf(&holder).Elem(),
			"Set":   reflect.ValueOf(set),
		},
	}); err != nil {
		return nil, fmt.Errorf("code sandbox: %w", err)
	}

	obs := observability.ObserverFromContext(ctx)
	defer func() {
		if obs != nil && stdout.Len() > 0 {
			obs.Debug(ctx, "code output",
				observability.String(observability.AttrWorkflowNode, e.node),
				observability.String("stdout", utils.TruncateStringDefault(stdout.String())),
			)
		}
	}()
	if obs != nil && hasProcess {
		obs.Trace(ctx, "calling process",
			observability.String(observability.AttrWorkflowNode, e.node),
			observability.String(observability.AttrCodeEntryPoint, "process"),
			observability.Duration(observability.AttrCodeTimeout, e.timeout),
		)
	}

	if _, err := i.EvalWithContext(runCtx, program); err != nil {
		return nil, e.wrap(ctx, runCtx, err)
	}
	if !returned {
		return nil, &RuntimeError{Err: errors.New("snippet exited before producing a result")}
	}
	if failure != nil {
		return nil, &RuntimeError{Err: failure}
	}
	return normalize(out), nil
}

// wrap classifies an interpreter error. Cancellation of the caller's
// context is passed through untouched.
func (e *CodeExecutor) wrap(ctx, runCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Timeout: e.timeout}
	}
	return &RuntimeError{Err: err}
}

// normalize drops typed nils so a snippet returning a nil map or pointer
// reads as no result.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}
