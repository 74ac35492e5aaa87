// Package expr evaluates boolean routing conditions over workflow state.
//
// Conditions are compiled once with github.com/expr-lang/expr with every
// builtin function disabled; identifiers resolve only from the state map
// (plus the constants True, False and None). A reference to a field the
// state does not hold is reported as *MissingFieldError before anything runs.
// Results follow Python truthiness: empty strings, empty collections, zero
// and nil are false.
//
//	p, _ := expr.Compile(`score > 80 and tier in ["gold", "silver"]`)
//	ok, err := p.Eval(map[string]any{"score": 85, "tier": "gold"})
package expr
