package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/leofalp/aigraph/core/schema"
)

// FieldSpec declares one state field.
type FieldSpec struct {
	Type        string  // type string, e.g. "str" or "List[str]"; empty means any
	Reducer     Reducer // zero value behaves as ReducerNone
	IdentityKey string  // identity-merge only; defaults to "id"
}

func (f FieldSpec) identityKey() string {
	if f.IdentityKey == "" {
		return DefaultIdentityKey
	}
	return f.IdentityKey
}

// State is the field -> value container of one run.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Write is the set of field updates produced by one node invocation.
type Write struct {
	Node   string
	Order  int // lower applies first
	Values map[string]any
}

// Schema is an immutable set of field specs.
type Schema struct {
	fields map[string]FieldSpec
	names  []string
}

// NewSchema validates fields and returns a Schema. Fields using a list
// reducer must have a list type (or no type). All problems are joined.
func NewSchema(fields map[string]FieldSpec) (*Schema, error) {
	s := &Schema{fields: make(map[string]FieldSpec, len(fields))}
	var errs []error
	for name, spec := range fields {
		reducer, err := ParseReducer(string(spec.Reducer))
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", name, err))
			continue
		}
		spec.Reducer = reducer
		if spec.Type != "" {
			t, err := schema.ParseType(spec.Type)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %q: %w", name, err))
				continue
			}
			if spec.Reducer != ReducerNone && !t.IsList() && t.Kind != schema.KindAny {
				errs = append(errs, fmt.Errorf("field %q: reducer %s needs a list type, got %s", name, spec.Reducer, spec.Type))
				continue
			}
		}
		s.fields[name] = spec
		s.names = append(s.names, name)
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, errors.Join(errs...)
	}
	sort.Strings(s.names)
	return s, nil
}

// Fields returns the declared field names in lexical order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.names...)
}

// Field returns the spec of name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	spec, ok := s.fields[name]
	return spec, ok
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Init builds a state from initial by applying it as a single write, so list
// reducers normalize the initial values too.
func (s *Schema) Init(initial map[string]any) (State, error) {
	return s.Merge(State{}, Write{Node: "__input__", Order: -1, Values: initial})
}

// Merge applies writes to a copy of current, sorted by Order (stable for
// equal orders) and, within one write, by field name. Fields not declared in
// the schema are overwritten. current is never modified.
func (s *Schema) Merge(current State, writes ...Write) (State, error) {
	sorted := append([]Write(nil), writes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	next := current.Clone()
	for _, w := range sorted {
		keys := make([]string, 0, len(w.Values))
		for k := range w.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			spec := s.fields[key]
			merged, err := reduce(spec, next[key], w.Values[key])
			if err != nil {
				return nil, fmt.Errorf("node %q field %q: %w", w.Node, key, err)
			}
			next[key] = merged
		}
	}
	return next, nil
}
