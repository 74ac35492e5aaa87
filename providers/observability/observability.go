package observability

import (
	"context"
	"time"
)

// Provider bundles the three signals the engine emits. Components accept a
// Provider and treat nil as "observability off".
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans. The returned context carries the span for
// SpanFromContext.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one timed unit of work: a workflow run, a node execution or an
// LLM request. End must be called exactly once.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics hands out named instruments. Asking twice for the same name
// returns the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter only goes up.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution, typically durations in milliseconds.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger is a leveled structured logger. Trace sits below Debug and is
// used for payload dumps.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key/value annotation. Keys are listed in semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute               { return Attribute{Key: key, Value: value} }
func StringSlice(key string, value []string) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute              { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute          { return Attribute{Key: key, Value: value} }
func Float64(key string, value float64) Attribute      { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute            { return Attribute{Key: key, Value: value} }

// Duration keeps the time.Duration so handlers can render it ("1.5s").
func Duration(key string, value time.Duration) Attribute { return Attribute{Key: key, Value: value} }

// Error records err's message under AttrError. A nil error yields "".
func Error(err error) Attribute {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Attribute{Key: AttrError, Value: msg}
}
