package workflow

import (
	"time"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/providers/ai"
	"github.com/leofalp/aigraph/providers/checkpoint"
	"github.com/leofalp/aigraph/providers/events"
	"github.com/leofalp/aigraph/providers/observability"
)

// DefaultMaxSteps bounds the number of supersteps of one run.
const DefaultMaxSteps = 100

// Option configures a Compiler and the graphs it compiles.
type Option func(*options)

type options struct {
	maxSteps         int
	maxConcurrency   int
	executionTimeout time.Duration
	observer         observability.Provider
	checkpointer     checkpoint.Checkpointer
	events           events.Sink
	registry         *executor.Registry
	provider         ai.Provider
	cache            bool
	strict           bool
}

func defaultOptions() *options {
	return &options{
		maxSteps: DefaultMaxSteps,
		cache:    true,
		strict:   true,
	}
}

// WithMaxSteps bounds the number of supersteps of a run. Runs that loop
// past the limit fail with ErrMaxSteps.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithMaxConcurrency limits how many nodes of one superstep run at once.
// Zero (the default) means unlimited.
//
// Example:
//
//	workflow.NewCompiler(workflow.WithMaxConcurrency(3))
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// WithExecutionTimeout bounds a whole run. Zero means no timeout.
func WithExecutionTimeout(d time.Duration) Option {
	return func(o *options) {
		o.executionTimeout = d
	}
}

// WithObserver sets the tracing, metrics and logging sink. Without one the
// engine falls back to the observer carried by the run context, if any.
func WithObserver(p observability.Provider) Option {
	return func(o *options) {
		o.observer = p
	}
}

// WithCheckpointer enables state load and save for runs with a thread id.
func WithCheckpointer(c checkpoint.Checkpointer) Option {
	return func(o *options) {
		o.checkpointer = c
	}
}

// WithEventSink publishes run and node events, best-effort.
func WithEventSink(s events.Sink) Option {
	return func(o *options) {
		o.events = s
	}
}

// WithRegistry replaces the node kind registry. The default registry
// provides "llm" and "code".
func WithRegistry(r *executor.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithProvider makes every LLM node use p instead of creating its own
// OpenAI client.
func WithProvider(p ai.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithCache toggles the compiled graph and schema caches (on by default).
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

// WithStrictSchemas sets the structured output mode for LLM nodes whose
// config does not set "strict". Strict is the default.
func WithStrictSchemas(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// RunOption configures a single run.
type RunOption func(*runOptions)

type runOptions struct {
	threadID string
}

// WithThreadID names the thread a run belongs to. With a checkpointer
// configured, the thread's saved state is loaded before the run and the
// final state saved after it.
func WithThreadID(id string) RunOption {
	return func(o *runOptions) {
		o.threadID = id
	}
}
