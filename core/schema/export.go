package schema

import "github.com/leofalp/aigraph/internal/jsonschema"

// JSONSchema exports m as a JSON Schema document. Named nested models go to
// $defs and are referenced with $ref; inline objects stay inline.
//
// Strict models follow the structured-output rules of OpenAI-style APIs:
// every property is listed as required, optional ones become nullable, and
// additionalProperties is false.
func (m *Model) JSONSchema() *jsonschema.Schema {
	defs := map[string]*jsonschema.Schema{}
	root := objectSchema(m, defs)
	root.Title = m.Name
	if len(defs) > 0 {
		root.Defs = defs
	}
	return root
}

func objectSchema(m *Model, defs map[string]*jsonschema.Schema) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "object",
		Description: m.Doc,
		Properties:  make(map[string]*jsonschema.Schema, len(m.Fields)),
	}
	if m.Strict {
		s.AdditionalProperties = false
	}

	for _, f := range m.Fields {
		prop := typeSchema(f.Type, defs)
		applyConstraints(target(prop), f.Constraints)

		if m.Strict && !f.Required && f.Type.Kind != KindOptional {
			prop = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{prop, {Type: "null"}}}
		}
		prop.Description = f.Description
		prop.Title = f.Title
		prop.Examples = f.Examples
		if f.HasDefault && !m.Strict {
			prop.Default = f.Default
		}

		s.Properties[f.Name] = prop
		if f.Required || m.Strict {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func typeSchema(t *Type, defs map[string]*jsonschema.Schema) *jsonschema.Schema {
	switch t.Kind {
	case KindString:
		return &jsonschema.Schema{Type: "string"}
	case KindInt:
		return &jsonschema.Schema{Type: "integer"}
	case KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case KindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case KindList:
		return &jsonschema.Schema{Type: "array", Items: typeSchema(t.Elem, defs)}
	case KindOptional:
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{typeSchema(t.Elem, defs), {Type: "null"}}}
	case KindDict:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: typeSchema(t.Value, defs)}
	case KindUnion:
		s := &jsonschema.Schema{}
		for _, v := range t.Variants {
			s.AnyOf = append(s.AnyOf, typeSchema(v, defs))
		}
		return s
	case KindModel:
		if t.Model.anonymous {
			return objectSchema(t.Model, defs)
		}
		if _, ok := defs[t.Model.Name]; !ok {
			defs[t.Model.Name] = &jsonschema.Schema{} // reserve before recursing
			def := objectSchema(t.Model, defs)
			def.Title = t.Model.Name
			defs[t.Model.Name] = def
		}
		return &jsonschema.Schema{Ref: jsonschema.DefRef(t.Model.Name)}
	}
	return &jsonschema.Schema{}
}

// target returns the non-null branch of a nullable schema.
func target(s *jsonschema.Schema) *jsonschema.Schema {
	if len(s.AnyOf) == 2 && s.AnyOf[1].Type == "null" {
		return s.AnyOf[0]
	}
	return s
}

func applyConstraints(s *jsonschema.Schema, c Constraints) {
	if c.Empty() {
		return
	}
	switch s.Type {
	case "array":
		s.MinItems, s.MaxItems = c.MinLength, c.MaxLength
	default:
		s.MinLength, s.MaxLength = c.MinLength, c.MaxLength
	}
	s.Pattern = c.Pattern
	s.Minimum, s.Maximum = c.Ge, c.Le
	s.ExclusiveMinimum, s.ExclusiveMaximum = c.Gt, c.Lt
	s.MultipleOf = c.MultipleOf
	s.Enum = c.Enum
}
