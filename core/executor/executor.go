package executor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Executor runs one node invocation. Implementations must be safe for
// concurrent use: a compiled graph shares its executors across runs.
type Executor interface {
	Execute(ctx context.Context, input any) (any, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, input any) (any, error)

func (f ExecutorFunc) Execute(ctx context.Context, input any) (any, error) {
	return f(ctx, input)
}

var (
	// ErrUnknownKind is returned by Registry.New for unregistered kinds.
	ErrUnknownKind = errors.New("executor: unknown node kind")
	// ErrInvalidConfig wraps node configuration problems.
	ErrInvalidConfig = errors.New("executor: invalid node config")
	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("executor: timed out")
	// ErrRuntime is matched by every *RuntimeError.
	ErrRuntime = errors.New("executor: runtime error")
	// ErrRefusal is returned when the model declines to answer.
	ErrRefusal = errors.New("executor: model refused the request")
)

// TimeoutError reports a code snippet that ran past its limit.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("code execution timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// RuntimeError wraps a failure raised by a code snippet. Its message
// preserves the snippet's own error text.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return "code execution failed: " + e.Err.Error()
}

func (e *RuntimeError) Unwrap() []error { return []error{ErrRuntime, e.Err} }
