package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/aigraph/providers/observability"
)

// ErrEmptyThreadID is returned when a store is called without a thread id.
var ErrEmptyThreadID = errors.New("checkpoint: thread id is empty")

// Checkpointer loads and saves the state of a workflow thread.
type Checkpointer interface {
	// Load returns the last saved state of threadID. found is false when
	// nothing was saved yet; that is not an error.
	Load(ctx context.Context, threadID string) (state map[string]any, found bool, err error)

	// Save replaces the saved state of threadID.
	Save(ctx context.Context, threadID string, state map[string]any) error
}

// Encode serializes a state for storage.
func Encode(state map[string]any) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: encode state: %w", err)
	}
	return data, nil
}

// Decode restores a state serialized by Encode. Numbers come back as float64.
func Decode(data []byte) (map[string]any, error) {
	var state map[string]any
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("checkpoint: decode state: %w", err)
	}
	if state == nil {
		state = map[string]any{}
	}
	return state, nil
}

// CheckThreadID returns ErrEmptyThreadID for an empty id.
func CheckThreadID(threadID string) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}
	return nil
}

// Annotate records the backend and lookup outcome on the span in ctx, if any.
func Annotate(ctx context.Context, backend string, found bool) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrCheckpointBackend, backend),
			observability.Bool(observability.AttrCheckpointFound, found),
		)
	}
}
