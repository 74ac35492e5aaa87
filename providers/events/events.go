package events

import (
	"context"
	"time"
)

// Type names a run event.
type Type string

const (
	RunStarted    Type = "run.started"
	RunCompleted  Type = "run.completed"
	RunFailed     Type = "run.failed"
	NodeCompleted Type = "node.completed"
	NodeFailed    Type = "node.failed"
)

// Event is one entry of the run audit trail.
type Event struct {
	Type     Type          `json:"type"`
	Workflow string        `json:"workflow"`
	RunID    string        `json:"run_id"`
	ThreadID string        `json:"thread_id,omitempty"`
	Node     string        `json:"node,omitempty"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Error    string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}

// Sink receives run events.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Publish(ctx context.Context, event Event) error { return f(ctx, event) }
