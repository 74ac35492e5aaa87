package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseType parses a type string. Identifiers that name a declared model win
// over built-in names; any other unknown identifier becomes a reference that
// the resolver reports as missing.
func parseType(s string, declared map[string]bool) (*Type, error) {
	p := &typeParser{src: s, declared: declared}
	p.skipSpace()
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d in type %q", p.src[p.pos:], p.pos, s)
	}
	return t, nil
}

type typeParser struct {
	src      string
	pos      int
	declared map[string]bool
}

func (p *typeParser) parse() (*Type, error) {
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected a type name at offset %d in %q", p.pos, p.src)
	}
	p.skipSpace()

	var args []*Type
	if p.peek() == '[' {
		p.pos++
		for {
			p.skipSpace()
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case ']':
				p.pos++
			default:
				return nil, fmt.Errorf("expected ',' or ']' at offset %d in %q", p.pos, p.src)
			}
			break
		}
	}

	if p.declared[name] {
		if args != nil {
			return nil, fmt.Errorf("model %s takes no type arguments", name)
		}
		return &Type{Kind: kindRef, ref: name}, nil
	}
	return builtin(name, args)
}

func builtin(name string, args []*Type) (*Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s expects %d type argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch strings.ToLower(name) {
	case "str", "string":
		return typeString, arity(0)
	case "int", "integer":
		return typeInt, arity(0)
	case "float", "number":
		return typeFloat, arity(0)
	case "bool", "boolean":
		return typeBool, arity(0)
	case "any":
		return typeAny, arity(0)
	case "list", "array":
		if args == nil {
			return &Type{Kind: KindList, Elem: typeAny}, nil
		}
		if err := arity(1); err != nil {
			return nil, err
		}
		return &Type{Kind: KindList, Elem: args[0]}, nil
	case "optional":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &Type{Kind: KindOptional, Elem: args[0]}, nil
	case "dict", "object":
		if args == nil {
			return &Type{Kind: KindDict, Key: typeString, Value: typeAny}, nil
		}
		if err := arity(2); err != nil {
			return nil, err
		}
		return &Type{Kind: KindDict, Key: args[0], Value: args[1]}, nil
	case "union":
		if len(args) < 2 {
			return nil, fmt.Errorf("union expects at least 2 type arguments, got %d", len(args))
		}
		return &Type{Kind: KindUnion, Variants: args}, nil
	}

	if args != nil {
		return nil, fmt.Errorf("unknown generic type %s", name)
	}
	return &Type{Kind: kindRef, ref: name}, nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			p.pos += size
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// refs appends every model name t refers to.
func (t *Type) refs(into map[string]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case kindRef:
		into[t.ref] = true
	case KindList, KindOptional:
		t.Elem.refs(into)
	case KindDict:
		t.Key.refs(into)
		t.Value.refs(into)
	case KindUnion:
		for _, v := range t.Variants {
			v.refs(into)
		}
	case KindModel:
		if t.Model.anonymous {
			for _, f := range t.Model.Fields {
				f.Type.refs(into)
			}
		}
	}
}

// link returns t with every reference replaced by the built model.
func (t *Type) link(built map[string]*Model) *Type {
	switch t.Kind {
	case kindRef:
		return &Type{Kind: KindModel, Model: built[t.ref]}
	case KindList, KindOptional:
		return &Type{Kind: t.Kind, Elem: t.Elem.link(built)}
	case KindDict:
		return &Type{Kind: KindDict, Key: t.Key.link(built), Value: t.Value.link(built)}
	case KindUnion:
		variants := make([]*Type, len(t.Variants))
		for i, v := range t.Variants {
			variants[i] = v.link(built)
		}
		return &Type{Kind: KindUnion, Variants: variants}
	case KindModel:
		if t.Model.anonymous {
			return &Type{Kind: KindModel, Model: t.Model.link(built)}
		}
	}
	return t
}

// ParseType parses a standalone type string. Unknown identifiers are kept as
// model references; Type.String renders them by name.
func ParseType(s string) (*Type, error) {
	return parseType(s, nil)
}

// IsList reports whether t is List[...], optionally wrapped in Optional.
func (t *Type) IsList() bool {
	if t.Kind == KindOptional {
		return t.Elem.IsList()
	}
	return t.Kind == KindList
}
