package workflow

import (
	"context"
	"time"

	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/observability"
)

const (
	nodeCompleted = "completed"
	nodeFailed    = "failed"
)

// observerState holds the provider and root span of one run. A nil
// provider disables observation.
type observerState struct {
	provider observability.Provider
	rootSpan observability.Span
}

// observeRunStart opens the run span and attaches span and observer to ctx
// so executors log through the same sink.
func (r *run) observeRunStart(ctx *context.Context) {
	r.observer.provider = r.graph.opts.observer
	if r.observer.provider == nil {
		r.observer.provider = observability.ObserverFromContext(*ctx)
	}
	if r.observer.provider == nil {
		return
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrWorkflowName, r.graph.name),
		observability.String(observability.AttrWorkflowRunID, r.id),
		observability.Int(observability.AttrWorkflowTotalNodes, len(r.graph.nodes)),
	}
	if r.threadID != "" {
		attrs = append(attrs, observability.String(observability.AttrWorkflowThreadID, r.threadID))
	}

	var rootSpan observability.Span
	*ctx, rootSpan = r.observer.provider.StartSpan(*ctx, observability.SpanWorkflowRun, attrs...)
	r.observer.rootSpan = rootSpan

	*ctx = observability.ContextWithSpan(*ctx, rootSpan)
	*ctx = observability.ContextWithObserver(*ctx, r.observer.provider)

	r.observer.provider.Info(*ctx, "workflow run started", attrs...)
}

func (r *run) observeRunCompleted(ctx context.Context, steps int, elapsed time.Duration) {
	if r.observer.provider == nil {
		return
	}

	r.observer.provider.Histogram(observability.MetricWorkflowRunDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrWorkflowName, r.graph.name),
		observability.String(observability.AttrStatus, nodeCompleted),
	)
	r.observer.provider.Info(ctx, "workflow run completed",
		observability.String(observability.AttrWorkflowRunID, r.id),
		observability.Int(observability.AttrWorkflowStep, steps),
		observability.Duration(observability.AttrDuration, elapsed),
	)

	if r.observer.rootSpan != nil {
		r.observer.rootSpan.SetStatus(observability.StatusOK, "workflow run completed")
		r.observer.rootSpan.End()
	}
}

func (r *run) observeRunFailed(ctx context.Context, err error, elapsed time.Duration) {
	if r.observer.provider == nil {
		return
	}

	r.observer.provider.Histogram(observability.MetricWorkflowRunDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrWorkflowName, r.graph.name),
		observability.String(observability.AttrStatus, nodeFailed),
	)
	r.observer.provider.Error(ctx, "workflow run failed",
		observability.String(observability.AttrWorkflowRunID, r.id),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
	)

	if r.observer.rootSpan != nil {
		r.observer.rootSpan.RecordError(err)
		r.observer.rootSpan.SetStatus(observability.StatusError, "workflow run failed")
		r.observer.rootSpan.End()
	}
}

func (r *run) observeStep(ctx context.Context, step int, ready []string) {
	if r.observer.provider == nil {
		return
	}
	r.observer.provider.Debug(ctx, "step started",
		observability.Int(observability.AttrWorkflowStep, step),
		observability.StringSlice(observability.AttrWorkflowReadyNodes, ready),
	)
}

func (r *run) observeRoute(ctx context.Context, from, to string) {
	if r.observer.provider == nil {
		return
	}
	r.observer.provider.Trace(ctx, "edge routed",
		observability.String(observability.AttrWorkflowNode, from),
		observability.String(observability.AttrWorkflowRoute, to),
	)
}

// observeNodeStart opens a child span for the node and attaches it to ctx.
func (r *run) observeNodeStart(ctx *context.Context, step int, node *compiledNode) {
	if r.observer.provider == nil {
		return
	}

	var nodeSpan observability.Span
	*ctx, nodeSpan = r.observer.provider.StartSpan(*ctx, observability.SpanWorkflowNode,
		observability.String(observability.AttrWorkflowNode, node.name),
		observability.String(observability.AttrWorkflowNodeKind, node.kind),
		observability.Int(observability.AttrWorkflowStep, step),
	)
	*ctx = observability.ContextWithSpan(*ctx, nodeSpan)

	r.observer.provider.Debug(*ctx, "node execution started",
		observability.String(observability.AttrWorkflowNode, node.name),
		observability.Int(observability.AttrWorkflowStep, step),
	)
}

func (r *run) observeNodeCompleted(ctx context.Context, node *compiledNode, result any, elapsed time.Duration) {
	if r.observer.provider == nil {
		return
	}

	r.observer.provider.Histogram(observability.MetricWorkflowNodeDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrWorkflowNode, node.name),
	)
	r.observer.provider.Counter(observability.MetricWorkflowNodeCount).Add(ctx, 1,
		observability.String(observability.AttrWorkflowNodeStatus, nodeCompleted),
		observability.String(observability.AttrWorkflowNode, node.name),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrWorkflowNode, node.name),
		observability.String(observability.AttrWorkflowNodeStatus, nodeCompleted),
		observability.Duration(observability.AttrDuration, elapsed),
	}
	if s, ok := result.(string); ok {
		logAttrs = append(logAttrs, observability.String("workflow.node.output", utils.TruncateString(s, 100)))
	}
	r.observer.provider.Info(ctx, "node execution completed", logAttrs...)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrWorkflowNodeStatus, nodeCompleted),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		span.SetStatus(observability.StatusOK, "node completed")
		span.End()
	}
}

func (r *run) observeNodeFailed(ctx context.Context, node *compiledNode, err error, elapsed time.Duration) {
	if r.observer.provider == nil {
		return
	}

	r.observer.provider.Histogram(observability.MetricWorkflowNodeDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrWorkflowNode, node.name),
	)
	r.observer.provider.Counter(observability.MetricWorkflowNodeCount).Add(ctx, 1,
		observability.String(observability.AttrWorkflowNodeStatus, nodeFailed),
		observability.String(observability.AttrWorkflowNode, node.name),
	)
	r.observer.provider.Error(ctx, "node execution failed",
		observability.String(observability.AttrWorkflowNode, node.name),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
	)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.RecordError(err)
		span.SetAttributes(
			observability.String(observability.AttrWorkflowNodeStatus, nodeFailed),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		span.SetStatus(observability.StatusError, "node failed")
		span.End()
	}
}

func (r *run) observeCheckpoint(ctx context.Context, msg string, found bool) {
	if r.observer.provider == nil {
		return
	}
	r.observer.provider.Debug(ctx, msg,
		observability.String(observability.AttrWorkflowThreadID, r.threadID),
		observability.Bool(observability.AttrCheckpointFound, found),
	)
}
