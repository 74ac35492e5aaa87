package workflow

import (
	"fmt"
	"sort"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/core/state"
)

// Validate checks cfg against the built-in node kinds and returns every
// problem found, in config order. An empty result means cfg compiles as
// far as topology, kinds, reducers and mappings are concerned.
func Validate(cfg *Config) []string {
	return validate(cfg, executor.DefaultRegistry())
}

func validate(cfg *Config, registry *executor.Registry) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if cfg.Name == "" {
		report("workflow name is empty")
	}

	nodes := make(map[string]bool, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		switch {
		case n.Name == "":
			report("node #%d has no name", i)
		case n.Name == End:
			report("node name %q is reserved", End)
		case nodes[n.Name]:
			report("duplicate node name %q", n.Name)
		}
		nodes[n.Name] = true

		if !registry.Has(n.Kind) {
			report("node %q: unknown kind %q (registered: %v)", n.Name, n.Kind, registry.Kinds())
		}
		if m := n.InputMapping; m != nil && !validFormat(m.Format) {
			report("node %q: unknown input format %q", n.Name, m.Format)
		}
		if m := n.OutputMapping; m != nil && !validMode(m.Mode) {
			report("node %q: unknown output mode %q", n.Name, m.Mode)
		}
	}

	if cfg.EntryPoint == "" {
		report("entry point is empty")
	} else if !nodes[cfg.EntryPoint] {
		report("entry point %q is not a declared node", cfg.EntryPoint)
	}

	checkTarget := func(i int, what, target string) {
		if target != End && !nodes[target] {
			report("edge #%d: %s %q is not a declared node", i, what, target)
		}
	}
	for i, e := range cfg.Edges {
		if !nodes[e.Source] {
			report("edge #%d: source %q is not a declared node", i, e.Source)
		}
		switch e.Type {
		case "", EdgeNormal:
			if e.Target == "" {
				report("edge #%d: normal edge has no target", i)
			} else {
				checkTarget(i, "target", e.Target)
			}
		case EdgeConditional:
			hasMap := e.ConditionField != "" || len(e.ConditionMap) > 0
			switch {
			case len(e.Conditions) > 0 && hasMap:
				report("edge #%d: use either conditions or condition_field/condition_map, not both", i)
			case len(e.Conditions) == 0 && !hasMap:
				report("edge #%d: conditional edge needs conditions or condition_field/condition_map", i)
			case hasMap && e.ConditionField == "":
				report("edge #%d: condition_map without condition_field", i)
			}
			for j, c := range e.Conditions {
				if c.Expression == "" {
					report("edge #%d: condition #%d has an empty expression", i, j)
				}
				checkTarget(i, fmt.Sprintf("condition #%d target", j), c.Target)
			}
			keys := make([]string, 0, len(e.ConditionMap))
			for k := range e.ConditionMap {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				checkTarget(i, fmt.Sprintf("condition_map[%q] target", k), e.ConditionMap[k])
			}
			checkTarget(i, "default", e.DefaultTarget())
		default:
			report("edge #%d: unknown edge type %q", i, e.Type)
		}
	}

	fields := make([]string, 0, len(cfg.StateSchema))
	for name := range cfg.StateSchema {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		if _, err := state.ParseReducer(cfg.StateSchema[name].Reducer); err != nil {
			report("state field %q: %v", name, err)
		}
	}

	return problems
}

func validFormat(f string) bool {
	switch f {
	case "", FormatRaw, FormatJoin, FormatChatHistory, FormatLast, FormatMarkdown:
		return true
	}
	return false
}

func validMode(m string) bool {
	switch m {
	case "", ModeReplace, ModeAppend, ModeMessage:
		return true
	}
	return false
}
