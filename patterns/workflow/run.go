package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/aigraph/core/state"
	"github.com/leofalp/aigraph/providers/events"
	"github.com/leofalp/aigraph/providers/observability"
)

// run is the mutable side of one Run call.
type run struct {
	graph    *CompiledGraph
	id       string
	threadID string
	observer observerState
}

// Run executes the graph from its entry point against initial and returns
// the final state once every path has reached END or a node without
// successors.
//
// Execution proceeds in supersteps. The nodes of a step run concurrently on
// the same state snapshot; their writes are applied after the step in the
// config order of the edges that activated them, so reducer results do not
// depend on completion timing. A node with several incoming paths waits
// until no other active node can still reach it. The first node error
// cancels the step and fails the run.
func (g *CompiledGraph) Run(ctx context.Context, initial map[string]any, opts ...RunOption) (state.State, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if g.opts.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.executionTimeout)
		defer cancel()
	}

	r := &run{graph: g, id: uuid.New().String(), threadID: ro.threadID}
	r.observeRunStart(&ctx)
	r.publish(ctx, events.Event{Type: events.RunStarted})

	start := time.Now()
	final, steps, err := r.execute(ctx, initial)
	elapsed := time.Since(start)
	if err != nil {
		r.observeRunFailed(ctx, err, elapsed)
		r.publish(ctx, events.Event{Type: events.RunFailed, Step: steps, Duration: elapsed, Error: err.Error()})
		return nil, err
	}
	r.observeRunCompleted(ctx, steps, elapsed)
	r.publish(ctx, events.Event{Type: events.RunCompleted, Step: steps, Duration: elapsed})
	return final, nil
}

func (r *run) execute(ctx context.Context, initial map[string]any) (state.State, int, error) {
	g := r.graph

	st, err := r.load(ctx, initial)
	if err != nil {
		return nil, 0, err
	}

	// node -> config indexes of the edges on the path that activated it
	pending := map[string][]int{g.entry: nil}
	step := 0
	for ; len(pending) > 0; step++ {
		if step >= g.opts.maxSteps {
			return nil, step, fmt.Errorf("%w: %d steps", ErrMaxSteps, g.opts.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, step, err
		}

		ready := r.ready(pending)
		r.observeStep(ctx, step, ready)

		writes, err := r.step(ctx, step, st, ready)
		if err != nil {
			return nil, step, err
		}
		if st, err = g.state.Merge(st, writes...); err != nil {
			return nil, step, fmt.Errorf("step %d: merge state: %w", step, err)
		}

		paths := make(map[string][]int, len(ready))
		for _, name := range ready {
			paths[name] = pending[name]
			delete(pending, name)
		}
		for _, name := range ready {
			for _, out := range g.successors[name] {
				target := out.router.route(ctx, st)
				r.observeRoute(ctx, name, target)
				if target == End {
					continue
				}
				path := append(slices.Clone(paths[name]), out.index)
				if prev, ok := pending[target]; !ok || slices.Compare(path, prev) < 0 {
					pending[target] = path
				}
			}
		}
	}

	if err := r.save(ctx, st); err != nil {
		return nil, step, err
	}
	return st, step, nil
}

// ready returns the pending nodes no other pending node can reach, sorted
// by their activation paths. Comparing whole paths keeps every branch of a
// fan-out behind the edge it started from, however deep it is. If every
// pending node is reachable from another (a cycle), all of them run.
func (r *run) ready(pending map[string][]int) []string {
	g := r.graph
	var ready []string
	for n := range pending {
		blocked := false
		for m := range pending {
			if m != n && g.reach[m][n] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, n)
		}
	}
	if len(ready) == 0 {
		for n := range pending {
			ready = append(ready, n)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		if c := slices.Compare(pending[a], pending[b]); c != 0 {
			return c < 0
		}
		return g.nodes[a].index < g.nodes[b].index
	})
	return ready
}

// step runs ready concurrently against st and returns their buffered writes,
// ordered by each node's position in ready.
func (r *run) step(ctx context.Context, step int, st state.State, ready []string) ([]state.Write, error) {
	g := r.graph
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sem chan struct{}
	if g.opts.maxConcurrency > 0 {
		sem = make(chan struct{}, g.opts.maxConcurrency)
	}

	writes := make([]state.Write, len(ready))
	errs := make([]error, len(ready))
	var wg sync.WaitGroup
	for i, name := range ready {
		node := g.nodes[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-stepCtx.Done():
					errs[i] = &NodeError{Node: name, Step: step, Err: stepCtx.Err()}
					return
				}
			}
			values, err := r.invoke(stepCtx, step, node, st)
			if err != nil {
				errs[i] = &NodeError{Node: name, Step: step, Err: err}
				cancel()
				return
			}
			writes[i] = state.Write{Node: name, Order: i, Values: values}
		}()
	}
	wg.Wait()

	if err := firstCause(errs); err != nil {
		return nil, err
	}
	return writes, nil
}

// firstCause prefers a real node failure over the cancellations it caused
// in sibling nodes.
func firstCause(errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if fallback == nil {
			fallback = err
		}
	}
	return fallback
}

func (r *run) invoke(ctx context.Context, step int, node *compiledNode, st state.State) (map[string]any, error) {
	r.observeNodeStart(&ctx, step, node)
	start := time.Now()

	input, err := extractInput(st, node.input)
	var result any
	if err == nil {
		result, err = node.exec.Execute(ctx, input)
	}
	elapsed := time.Since(start)
	if err != nil {
		r.observeNodeFailed(ctx, node, err, elapsed)
		r.publish(ctx, events.Event{Type: events.NodeFailed, Node: node.name, Step: step, Duration: elapsed, Error: err.Error()})
		return nil, err
	}

	values := mapOutput(result, node.output, node.kind, r.graph.state.Has(messagesField))
	r.observeNodeCompleted(ctx, node, result, elapsed)
	r.publish(ctx, events.Event{Type: events.NodeCompleted, Node: node.name, Step: step, Duration: elapsed})
	return values, nil
}

// load builds the starting state. A saved thread state is restored first
// and initial is merged over it through the reducers.
func (r *run) load(ctx context.Context, initial map[string]any) (state.State, error) {
	g := r.graph
	cp := g.opts.checkpointer
	if cp == nil || r.threadID == "" {
		return g.state.Init(initial)
	}

	saved, found, err := cp.Load(ctx, r.threadID)
	if err != nil {
		return nil, fmt.Errorf("workflow: load checkpoint %q: %w", r.threadID, err)
	}
	r.observeCheckpoint(ctx, "checkpoint loaded", found)
	if !found {
		return g.state.Init(initial)
	}

	st, err := g.state.Init(saved)
	if err != nil {
		return nil, fmt.Errorf("workflow: restore checkpoint %q: %w", r.threadID, err)
	}
	return g.state.Merge(st, state.Write{Order: -1, Values: initial})
}

func (r *run) save(ctx context.Context, st state.State) error {
	cp := r.graph.opts.checkpointer
	if cp == nil || r.threadID == "" {
		return nil
	}
	if err := cp.Save(ctx, r.threadID, st); err != nil {
		return fmt.Errorf("workflow: save checkpoint %q: %w", r.threadID, err)
	}
	r.observeCheckpoint(ctx, "checkpoint saved", true)
	return nil
}

// publish hands event to the sink without waiting for it. Delivery is
// best-effort and unordered relative to the end of the run.
func (r *run) publish(ctx context.Context, event events.Event) {
	sink := r.graph.opts.events
	if sink == nil {
		return
	}
	event.Workflow = r.graph.name
	event.RunID = r.id
	event.ThreadID = r.threadID
	event.Time = time.Now()

	detached := context.WithoutCancel(ctx)
	go func() {
		if err := sink.Publish(detached, event); err != nil && r.observer.provider != nil {
			r.observer.provider.Debug(detached, "event publish failed",
				observability.String("event.type", string(event.Type)),
				observability.Error(err),
			)
		}
	}()
}
