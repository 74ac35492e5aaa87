package schema

import (
	"regexp"
	"strings"
)

// Kind tags the variant held by a Type.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindOptional
	KindDict
	KindUnion
	KindModel
	kindRef // unresolved model name, only seen during a build
)

// Type is a tagged TypeDescriptor. Which fields are set depends on Kind:
// Elem for list and optional, Key and Value for dict, Variants for union,
// Model for model.
type Type struct {
	Kind     Kind
	Elem     *Type
	Key      *Type
	Value    *Type
	Variants []*Type
	Model    *Model

	ref string
}

var (
	typeAny    = &Type{Kind: KindAny}
	typeString = &Type{Kind: KindString}
	typeInt    = &Type{Kind: KindInt}
	typeFloat  = &Type{Kind: KindFloat}
	typeBool   = &Type{Kind: KindBool}
)

// String renders t in type-string syntax.
func (t *Type) String() string {
	switch t.Kind {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "List[" + t.Elem.String() + "]"
	case KindOptional:
		return "Optional[" + t.Elem.String() + "]"
	case KindDict:
		return "Dict[" + t.Key.String() + ", " + t.Value.String() + "]"
	case KindUnion:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = v.String()
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	case KindModel:
		return t.Model.Name
	case kindRef:
		return t.ref
	default:
		return "any"
	}
}

// Model is a named set of typed fields.
type Model struct {
	Name   string
	Doc    string
	Fields []*Field // sorted by name
	Strict bool     // reject undeclared payload keys

	anonymous bool // inline object, built together with its parent
}

func (m *Model) link(built map[string]*Model) *Model {
	out := *m
	out.Fields = make([]*Field, len(m.Fields))
	for i, f := range m.Fields {
		linked := *f
		linked.Type = f.Type.link(built)
		out.Fields[i] = &linked
	}
	return &out
}

// Field returns the field called name, or nil.
func (m *Model) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one declared property of a Model.
type Field struct {
	Name        string
	Type        *Type
	Required    bool
	Default     any
	HasDefault  bool
	Description string
	Title       string
	Examples    []any
	Constraints Constraints
}

// Constraints restrict the value of a field. Length bounds apply to strings
// and lists; numeric bounds to int and float values.
type Constraints struct {
	MinLength  *int
	MaxLength  *int
	Pattern    string
	Ge         *float64
	Le         *float64
	Gt         *float64
	Lt         *float64
	MultipleOf *float64
	Enum       []any

	pattern *regexp.Regexp
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.MinLength == nil && c.MaxLength == nil && c.Pattern == "" &&
		c.Ge == nil && c.Le == nil && c.Gt == nil && c.Lt == nil &&
		c.MultipleOf == nil && len(c.Enum) == 0
}
