package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/leofalp/aigraph/core/expr"
	"github.com/leofalp/aigraph/core/state"
	"github.com/leofalp/aigraph/providers/observability"
)

func TestValueRouter(t *testing.T) {
	r := &valueRouter{
		field:    "intent",
		mapping:  map[string]string{"question": "Q", "chat": "C"},
		fallback: "C",
	}

	tests := []struct {
		value any
		want  string
	}{
		{"chat", "C"},
		{"question", "Q"},
		{"unknown", "C"},
		{nil, "C"},
	}
	for _, tt := range tests {
		if got := r.route(context.Background(), state.State{"intent": tt.value}); got != tt.want {
			t.Errorf("intent=%v: got %q, want %q", tt.value, got, tt.want)
		}
	}
	if got := r.route(context.Background(), state.State{}); got != "C" {
		t.Errorf("missing field: got %q, want default", got)
	}
}

func TestValueRouter_Coercion(t *testing.T) {
	tests := []struct {
		name    string
		mapping map[string]string
		value   any
		want    string
	}{
		{"integral float matches int key", map[string]string{"1": "one"}, 1.0, "one"},
		{"int matches", map[string]string{"42": "x"}, 42, "x"},
		{"bool lower", map[string]string{"true": "yes", "false": "no"}, true, "yes"},
		{"bool title", map[string]string{"True": "yes", "False": "no"}, false, "no"},
		{"bool unmatched", map[string]string{"maybe": "m"}, true, "default"},
		{"exact wins over coercion", map[string]string{"True": "title", "true": "lower"}, "True", "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &valueRouter{field: "v", mapping: tt.mapping, fallback: "default"}
			if got := r.route(context.Background(), state.State{"v": tt.value}); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func newExprRouter(t *testing.T, fallback string, conds ...Condition) *exprRouter {
	t.Helper()
	r, err := buildRouter(EdgeConfig{Type: EdgeConditional, Source: "grader", Conditions: conds, Default: fallback})
	if err != nil {
		t.Fatal(err)
	}
	return r.(*exprRouter)
}

func TestExprRouter(t *testing.T) {
	r := newExprRouter(t, "C", Condition{"score>80", "A"}, Condition{"score>50", "B"})
	obs := newTestObserver()
	ctx := observability.ContextWithObserver(context.Background(), obs)

	tests := []struct {
		name string
		st   state.State
		want string
	}{
		{"85", state.State{"score": 85.0}, "A"},
		{"60", state.State{"score": 60}, "B"},
		{"10", state.State{"score": 10}, "C"},
		{"missing", state.State{}, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.route(ctx, tt.st); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	// Both conditions failed on the missing field: logged, not raised.
	if n := len(obs.warnings()); n != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", n, obs.warnings())
	}
	if got := obs.metric(observability.MetricWorkflowRouteErrors); got != 2 {
		t.Errorf("route error count = %v", got)
	}
}

func TestExprRouter_TypeMismatchFallsThrough(t *testing.T) {
	r := newExprRouter(t, End,
		Condition{`score > 80`, "high"},
		Condition{`status == "done" and retries < 3`, "finish"},
	)

	got := r.route(context.Background(), state.State{"score": "not a number", "status": "done", "retries": 1})
	if got != "finish" {
		t.Errorf("got %q, want finish", got)
	}
}

func TestExprRouter_Membership(t *testing.T) {
	r := newExprRouter(t, "other",
		Condition{`"urgent" in tags`, "triage"},
		Condition{`is_valid == True and category in ["a", "b"]`, "ab"},
	)

	if got := r.route(context.Background(), state.State{"tags": []any{"urgent"}, "is_valid": false, "category": "z"}); got != "triage" {
		t.Errorf("got %q", got)
	}
	if got := r.route(context.Background(), state.State{"tags": []any{}, "is_valid": true, "category": "b"}); got != "ab" {
		t.Errorf("got %q", got)
	}
	if got := r.route(context.Background(), state.State{"tags": []any{}, "is_valid": true, "category": "z"}); got != "other" {
		t.Errorf("got %q", got)
	}
}

func TestBuildRouter_SyntaxErrorAtCompile(t *testing.T) {
	for _, source := range []string{"score >>> 1", "len(tags) > 1"} {
		_, err := buildRouter(EdgeConfig{Type: EdgeConditional, Source: "s", Conditions: []Condition{{source, "A"}}})
		if !errors.Is(err, expr.ErrSyntax) {
			t.Errorf("%q: expected expr.ErrSyntax, got %v", source, err)
		}
	}
}

func TestStaticRouter(t *testing.T) {
	if got := staticRouter("next").route(context.Background(), nil); got != "next" {
		t.Errorf("got %q", got)
	}
}
