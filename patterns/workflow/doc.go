// Package workflow compiles declarative workflow documents into executable
// graphs and runs them.
//
// A document declares a typed state schema with per-field reducers, a list
// of nodes (each bound to an executor kind such as "llm" or "code"), normal
// and conditional edges, and an entry point. [Compiler.Compile] validates
// the whole document at once, reporting every problem in a [ConfigError],
// and returns an immutable [CompiledGraph] that can be run concurrently.
//
// Conditional edges route either by value (state[condition_field] looked up
// in condition_map) or by expression (an ordered list of boolean
// expressions over the state, first match wins). Both fall back to
// "default", which is END when unset.
//
// Runs proceed in supersteps: ready nodes execute in parallel, their writes
// are buffered and applied in edge declaration order, and a node reachable
// from several branches waits for all of them (join barrier).
//
// Example:
//
//	cfg, err := workflow.LoadFile("workflow.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := workflow.NewCompiler(
//	    workflow.WithObserver(slogobs.New()),
//	    workflow.WithCheckpointer(inmemory.New()),
//	).Compile(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	final, err := g.Run(ctx, map[string]any{"input": "X"}, workflow.WithThreadID("t1"))
package workflow
