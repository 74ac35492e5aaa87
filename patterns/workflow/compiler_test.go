package workflow

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/core/expr"
	"github.com/leofalp/aigraph/core/schema"
)

func structuredConfig(description string) *Config {
	return &Config{
		Name:        "grader",
		Description: description,
		StateSchema: map[string]FieldConfig{"score": {Type: "int"}},
		EntryPoint:  "grade",
		Nodes: []NodeConfig{{
			Name: "grade",
			Kind: "llm",
			Config: map[string]any{
				"need_structured_output": true,
				"output_schema": map[string]any{
					"__nested__": map[string]any{
						"Person":  map[string]any{"name": "str", "address": map[string]any{"type": "Address"}},
						"Address": map[string]any{"city": "str"},
					},
					"score":  map[string]any{"type": "int", "ge": 0, "le": 100},
					"author": "Person",
				},
			},
		}},
		Edges: []EdgeConfig{{Source: "grade", Target: End}},
	}
}

func llmModel(t *testing.T, g *CompiledGraph, node string) *schema.Model {
	t.Helper()
	exec, ok := g.Executor(node)
	if !ok {
		t.Fatalf("node %q not compiled", node)
	}
	llm, ok := exec.(*executor.LLMExecutor)
	if !ok {
		t.Fatalf("node %q is %T, not an LLM executor", node, exec)
	}
	return llm.Model()
}

func TestCompiler_CacheReturnsSameGraph(t *testing.T) {
	c := NewCompiler(WithProvider(&mockProvider{}))

	g1, err := c.Compile(structuredConfig("v1"))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := c.Compile(structuredConfig("v1"))
	if err != nil {
		t.Fatal(err)
	}
	if g1 != g2 {
		t.Error("unchanged config should compile to the cached graph")
	}
	if c.CacheSize() != 1 {
		t.Errorf("cache size = %d", c.CacheSize())
	}
}

// Compiling an unchanged output schema twice yields the same model even
// when the surrounding config differs.
func TestCompiler_SchemaIdempotence(t *testing.T) {
	c := NewCompiler(WithProvider(&mockProvider{}))

	g1, err := c.Compile(structuredConfig("v1"))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := c.Compile(structuredConfig("v2"))
	if err != nil {
		t.Fatal(err)
	}
	if g1 == g2 {
		t.Fatal("different configs must not share a graph")
	}
	m1, m2 := llmModel(t, g1, "grade"), llmModel(t, g2, "grade")
	if m1 != m2 {
		t.Error("identical output schemas should share one model")
	}
	if m1.Field("author") == nil || m1.Field("author").Type.Model.Name != "Person" {
		t.Errorf("nested model not resolved: %+v", m1.Field("author"))
	}
}

func TestCompiler_CacheDisabled(t *testing.T) {
	c := NewCompiler(WithCache(false), WithProvider(&mockProvider{}))

	g1, _ := c.Compile(structuredConfig("v1"))
	g2, _ := c.Compile(structuredConfig("v1"))
	if g1 == nil || g1 == g2 {
		t.Error("cache disabled: each compile builds a new graph")
	}
	if c.CacheSize() != 0 {
		t.Errorf("cache size = %d", c.CacheSize())
	}
}

func TestCompiler_ConcurrentCompile(t *testing.T) {
	c := NewCompiler(WithProvider(&mockProvider{}))
	graphs := make([]*CompiledGraph, 8)

	var wg sync.WaitGroup
	for i := range graphs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := c.Compile(structuredConfig("same"))
			if err != nil {
				t.Error(err)
				return
			}
			graphs[i] = g
		}()
	}
	wg.Wait()
	for _, g := range graphs[1:] {
		if g != graphs[0] {
			t.Fatal("concurrent compiles of one config must converge on one graph")
		}
	}
}

func TestCompile_CollectsBuildErrors(t *testing.T) {
	cfg := &Config{
		Name: "broken",
		StateSchema: map[string]FieldConfig{
			"tags": {Type: "str", Reducer: "accumulate"},
		},
		EntryPoint: "a",
		Nodes: []NodeConfig{
			{Name: "a", Kind: "llm", Config: map[string]any{
				"need_structured_output": true,
				"output_schema": map[string]any{
					"__nested__": map[string]any{
						"A": map[string]any{"b": "B"},
						"B": map[string]any{"a": "A"},
					},
					"root": "A",
				},
			}},
			{Name: "b", Kind: "code", Config: map[string]any{}},
		},
		Edges: []EdgeConfig{
			{Type: EdgeConditional, Source: "a", Conditions: []Condition{{"score >", "b"}}},
			{Source: "b", Target: End},
		},
	}

	_, err := Compile(cfg, WithProvider(&mockProvider{}))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if len(cfgErr.Problems) != 4 {
		t.Errorf("expected 4 problems, got %d: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
	if !errors.Is(err, schema.ErrSchema) {
		t.Error("circular schema cause should be matchable")
	}
	if !errors.Is(err, expr.ErrSyntax) {
		t.Error("expression syntax cause should be matchable")
	}
	if !errors.Is(err, executor.ErrInvalidConfig) {
		t.Error("empty code source cause should be matchable")
	}
	for _, name := range []string{`"tags"`, "A (circular B)", `node "b"`, "edge #0"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestCompile_UnknownKindWithCustomRegistry(t *testing.T) {
	cfg := baseConfig()
	cfg.Nodes[1].Kind = "branch"
	cfg.Nodes[1].Config = map[string]any{"letter": "B"}

	if _, err := Compile(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("default registry has no branch kind, expected ErrConfig, got %v", err)
	}
	if _, err := Compile(cfg, WithRegistry(testRegistry())); err != nil {
		t.Fatalf("custom kind should compile: %v", err)
	}
}

func TestCompiledGraph_Introspection(t *testing.T) {
	cfg := mustLoad(t, fanOutDoc)
	g := mustCompile(t, cfg)

	if g.Name() != "fan" || g.EntryPoint() != "start" {
		t.Errorf("name=%q entry=%q", g.Name(), g.EntryPoint())
	}
	if got := strings.Join(g.Nodes(), ","); got != "start,a,b,c,f" {
		t.Errorf("nodes = %s", got)
	}
	if got := strings.Join(g.Successors("start"), ","); got != "a,b,c" {
		t.Errorf("successors = %s", got)
	}
	if !g.Reaches("start", "f") || !g.Reaches("a", "f") || g.Reaches("a", "b") || g.Reaches("f", "a") {
		t.Error("unexpected reachability")
	}
	if !g.State().Has("results") {
		t.Error("state schema should declare results")
	}
}
