package workflow

import (
	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/core/state"
)

// CompiledGraph is an executable workflow. It is immutable after Compile
// and safe for concurrent Run calls; each run owns its own state.
type CompiledGraph struct {
	name       string
	entry      string
	state      *state.Schema
	nodes      map[string]*compiledNode
	order      []string // node names in config order
	successors map[string][]outgoing
	reach      map[string]map[string]bool
	opts       *options
}

type compiledNode struct {
	name   string
	kind   string
	index  int
	exec   executor.Executor
	input  *InputMapping
	output *OutputMapping
}

// outgoing is one config edge leaving a node.
type outgoing struct {
	index   int // position in the config's edge list
	router  router
	targets []string
}

// Name returns the workflow name.
func (g *CompiledGraph) Name() string { return g.name }

// EntryPoint returns the first node of every run.
func (g *CompiledGraph) EntryPoint() string { return g.entry }

// Nodes returns the node names in config order.
func (g *CompiledGraph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// State returns the state schema.
func (g *CompiledGraph) State() *state.Schema { return g.state }

// Executor returns the executor of a node.
func (g *CompiledGraph) Executor(node string) (executor.Executor, bool) {
	n, ok := g.nodes[node]
	if !ok {
		return nil, false
	}
	return n.exec, true
}

// Successors returns every possible next node of node (END included), in
// edge order.
func (g *CompiledGraph) Successors(node string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range g.successors[node] {
		for _, t := range e.targets {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Reaches reports whether to can run after from.
func (g *CompiledGraph) Reaches(from, to string) bool {
	return g.reach[from][to]
}
