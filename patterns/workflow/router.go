package workflow

import (
	"context"
	"errors"

	"github.com/leofalp/aigraph/core/expr"
	"github.com/leofalp/aigraph/core/state"
	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/observability"
)

// router picks the next node from the post-step state.
type router interface {
	route(ctx context.Context, st state.State) string
}

type staticRouter string

func (r staticRouter) route(context.Context, state.State) string { return string(r) }

// valueRouter looks state[field] up in a value -> target map. Lookup tries
// the exact value, its string form, then the boolean spellings true/false
// and True/False, before falling back to the default.
type valueRouter struct {
	field    string
	mapping  map[string]string
	fallback string
}

func (r *valueRouter) route(_ context.Context, st state.State) string {
	value := st[r.field]
	if s, ok := value.(string); ok {
		if t, hit := r.mapping[s]; hit {
			return t
		}
	}
	if t, hit := r.mapping[utils.Stringify(value)]; hit {
		return t
	}
	if b, ok := value.(bool); ok {
		lower, title := "false", "False"
		if b {
			lower, title = "true", "True"
		}
		if t, hit := r.mapping[lower]; hit {
			return t
		}
		if t, hit := r.mapping[title]; hit {
			return t
		}
	}
	return r.fallback
}

type condition struct {
	program *expr.Program
	target  string
}

// exprRouter evaluates conditions in order; the first true one wins. An
// evaluation error is logged and counts as a non-match.
type exprRouter struct {
	source     string
	conditions []condition
	fallback   string
}

func (r *exprRouter) route(ctx context.Context, st state.State) string {
	for _, c := range r.conditions {
		ok, err := c.program.Eval(st)
		if err == nil {
			if ok {
				return c.target
			}
			continue
		}
		if obs := observability.ObserverFromContext(ctx); obs != nil {
			msg := "condition evaluation failed"
			if errors.Is(err, expr.ErrMissingField) {
				msg = "condition references a missing field"
			}
			obs.Warn(ctx, msg,
				observability.String(observability.AttrWorkflowNode, r.source),
				observability.String(observability.AttrWorkflowExpression, c.program.Source()),
				observability.Error(err),
			)
			obs.Counter(observability.MetricWorkflowRouteErrors).Add(ctx, 1,
				observability.String(observability.AttrWorkflowNode, r.source),
			)
		}
	}
	return r.fallback
}
