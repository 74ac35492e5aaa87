package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/core/expr"
	"github.com/leofalp/aigraph/core/schema"
	"github.com/leofalp/aigraph/core/state"
)

// Compiler turns workflow configs into CompiledGraphs. With caching on, an
// unchanged config compiles to the same *CompiledGraph and identical output
// schemas share one *schema.Model. A Compiler is safe for concurrent use.
type Compiler struct {
	opts    *options
	schemas *schema.Factory

	mu     sync.Mutex
	graphs map[string]*CompiledGraph
}

// NewCompiler returns a Compiler configured by opts.
func NewCompiler(opts ...Option) *Compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = executor.DefaultRegistry()
	}
	return &Compiler{
		opts:    o,
		schemas: schema.NewFactory(schema.WithCache(o.cache)),
		graphs:  map[string]*CompiledGraph{},
	}
}

// Compile compiles cfg with a fresh Compiler.
func Compile(cfg *Config, opts ...Option) (*CompiledGraph, error) {
	return NewCompiler(opts...).Compile(cfg)
}

// Compile validates cfg and builds its CompiledGraph. Every problem is
// reported in one *ConfigError; nothing is compiled partially.
func (c *Compiler) Compile(cfg *Config) (*CompiledGraph, error) {
	if cfg == nil {
		return nil, &ConfigError{Problems: []string{"config is nil"}}
	}

	var key string
	if c.opts.cache {
		var err error
		if key, err = configHash(cfg); err != nil {
			return nil, err
		}
		c.mu.Lock()
		g, ok := c.graphs[key]
		c.mu.Unlock()
		if ok {
			return g, nil
		}
	}

	g, err := c.compile(cfg)
	if err != nil {
		return nil, err
	}

	if c.opts.cache {
		c.mu.Lock()
		if cached, ok := c.graphs[key]; ok {
			g = cached
		} else {
			c.graphs[key] = g
		}
		c.mu.Unlock()
	}
	return g, nil
}

// CacheSize returns the number of cached graphs.
func (c *Compiler) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.graphs)
}

func (c *Compiler) compile(cfg *Config) (*CompiledGraph, error) {
	problems := validate(cfg, c.opts.registry)
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	var causes []error
	fail := func(err error) {
		problems = append(problems, err.Error())
		causes = append(causes, err)
	}

	fields := make(map[string]state.FieldSpec, len(cfg.StateSchema))
	for name, f := range cfg.StateSchema {
		fields[name] = state.FieldSpec{
			Type:        f.Type,
			Reducer:     state.Reducer(f.Reducer),
			IdentityKey: f.IdentityKey,
		}
	}
	st, err := state.NewSchema(fields)
	if err != nil {
		fail(fmt.Errorf("state schema: %w", err))
	}

	g := &CompiledGraph{
		name:       cfg.Name,
		entry:      cfg.EntryPoint,
		state:      st,
		nodes:      make(map[string]*compiledNode, len(cfg.Nodes)),
		successors: map[string][]outgoing{},
		opts:       c.opts,
	}

	for i, n := range cfg.Nodes {
		exec, err := c.opts.registry.New(n.Kind, n.Config, executor.Env{
			Node:          n.Name,
			Schemas:       c.schemas,
			Provider:      c.opts.provider,
			StrictDefault: c.opts.strict,
		})
		if err != nil {
			fail(fmt.Errorf("node %q: %w", n.Name, err))
			continue
		}
		g.nodes[n.Name] = &compiledNode{
			name:   n.Name,
			kind:   n.Kind,
			index:  i,
			exec:   exec,
			input:  n.InputMapping,
			output: n.OutputMapping,
		}
		g.order = append(g.order, n.Name)
	}

	for i, e := range cfg.Edges {
		r, err := buildRouter(e)
		if err != nil {
			fail(fmt.Errorf("edge #%d: %w", i, err))
			continue
		}
		g.successors[e.Source] = append(g.successors[e.Source], outgoing{
			index:   i,
			router:  r,
			targets: e.Targets(),
		})
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems, Err: errors.Join(causes...)}
	}

	g.reach = reachability(g.order, g.successors)
	return g, nil
}

func buildRouter(e EdgeConfig) (router, error) {
	if !e.IsConditional() {
		return staticRouter(e.Target), nil
	}
	if len(e.Conditions) == 0 {
		return &valueRouter{
			field:    e.ConditionField,
			mapping:  e.ConditionMap,
			fallback: e.DefaultTarget(),
		}, nil
	}

	r := &exprRouter{source: e.Source, fallback: e.DefaultTarget()}
	var errs []error
	for j, cond := range e.Conditions {
		p, err := expr.Compile(cond.Expression)
		if err != nil {
			errs = append(errs, fmt.Errorf("condition #%d: %w", j, err))
			continue
		}
		r.conditions = append(r.conditions, condition{program: p, target: cond.Target})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// reachability returns, for every node, the set of nodes reachable from it
// through any static or conditional target.
func reachability(nodes []string, successors map[string][]outgoing) map[string]map[string]bool {
	reach := make(map[string]map[string]bool, len(nodes))
	for _, start := range nodes {
		seen := map[string]bool{}
		stack := []string{start}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, out := range successors[n] {
				for _, t := range out.targets {
					if t == End || seen[t] {
						continue
					}
					seen[t] = true
					stack = append(stack, t)
				}
			}
		}
		reach[start] = seen
	}
	return reach
}

// configHash keys the compile cache by the normalized JSON of cfg.
func configHash(cfg *Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("workflow: hash config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
