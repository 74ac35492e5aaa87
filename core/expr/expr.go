package expr

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

var (
	// ErrSyntax wraps compile failures.
	ErrSyntax = errors.New("expr: invalid expression")
	// ErrMissingField is matched by every *MissingFieldError.
	ErrMissingField = errors.New("expr: missing field")
	// ErrEval wraps run-time failures such as type mismatches.
	ErrEval = errors.New("expr: evaluation failed")
)

// MissingFieldError names the state fields an expression needs but the
// state lacks.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("expr: missing field(s) %v", e.Fields)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// constants are visible to every expression; state fields shadow them.
var constants = map[string]any{"True": true, "False": false, "None": nil}

// Program is a compiled condition. It is immutable and safe for concurrent use.
type Program struct {
	source string
	prog   *vm.Program
	idents []string
}

// Compile parses and compiles source.
func Compile(source string) (*Program, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrSyntax, source, err)
	}

	idents, calls := freeVariables(tree)
	if len(calls) > 0 {
		return nil, fmt.Errorf("%w %q: function calls are not allowed (%v)", ErrSyntax, source, calls)
	}

	prog, err := expr.Compile(source, expr.DisableAllBuiltins())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrSyntax, source, err)
	}

	return &Program{source: source, prog: prog, idents: idents}, nil
}

// Source returns the expression text.
func (p *Program) Source() string { return p.source }

// Identifiers returns the state fields the expression reads, sorted.
func (p *Program) Identifiers() []string {
	return append([]string(nil), p.idents...)
}

// Eval runs the expression against state and reports its truthiness.
func (p *Program) Eval(state map[string]any) (bool, error) {
	var missing []string
	for _, name := range p.idents {
		if _, ok := state[name]; ok {
			continue
		}
		if _, ok := constants[name]; ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return false, &MissingFieldError{Fields: missing}
	}

	env := make(map[string]any, len(state)+len(constants))
	for k, v := range constants {
		env[k] = v
	}
	for k, v := range state {
		env[k] = v
	}

	out, err := expr.Run(p.prog, env)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrEval, p.source, err)
	}
	return Truthy(out), nil
}

// Truthy applies Python truthiness to v.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

type identVisitor struct {
	names    map[string]bool
	declared map[string]bool
	calls    map[string]bool
}

func (v *identVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.names[n.Value] = true
	case *ast.VariableDeclaratorNode:
		v.declared[n.Name] = true
	case *ast.BuiltinNode:
		v.calls[n.Name] = true
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			v.calls[id.Value] = true
		} else {
			v.calls["<call>"] = true
		}
	}
}

// freeVariables lists the free variables of tree and the functions it
// calls. Member accesses such as user.name only contribute their root.
func freeVariables(tree *parser.Tree) (idents, calls []string) {
	v := &identVisitor{names: map[string]bool{}, declared: map[string]bool{}, calls: map[string]bool{}}
	ast.Walk(&tree.Node, v)

	for name := range v.names {
		if !v.declared[name] && !v.calls[name] {
			idents = append(idents, name)
		}
	}
	for name := range v.calls {
		calls = append(calls, name)
	}
	sort.Strings(idents)
	sort.Strings(calls)
	return idents, calls
}
