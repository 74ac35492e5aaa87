// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics collection, and structured logging throughout aigraph.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Callers propagate an active
// [Provider] and [Span] through a [context.Context] using [ContextWithObserver]
// and [ContextWithSpan]; they can be retrieved with [ObserverFromContext] and
// [SpanFromContext].
//
// semconv.go holds the attribute keys, span names and metric names recorded
// by the workflow engine, the executors and the transports.
package observability
