package jsonschema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema represents the structure of JSON Schema used for defining structured responses.
// It follows the JSON Schema standard, supporting types, properties, validation keywords
// and named definitions.
type Schema struct {
	//  Type Specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the object, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties: Controls whether properties not defined in Properties are allowed.
	// It holds either a bool or a *Schema describing the values of a map.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// AnyOf lists alternative schemas (unions and nullable values)
	AnyOf []*Schema `json:"anyOf,omitempty"`
	// Default value for the parameter
	Default any `json:"default,omitempty"`
	// Enum contains the list of allowed values for the parameter
	Enum     []any `json:"enum,omitempty"`
	Examples []any `json:"examples,omitempty"`

	// String constraints
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Array constraints
	MinItems *int `json:"minItems,omitempty"`
	MaxItems *int `json:"maxItems,omitempty"`

	// Numeric constraints
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Ref is used for JSON Schema references to named definitions
	Ref string `json:"$ref,omitempty"`
	// Defs contains reusable schema definitions
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// DefRef returns the $ref pointer for a definition stored under name in $defs.
func DefRef(name string) string {
	return "#/$defs/" + name
}

// SortedPropertyNames returns the property names in lexical order.
func (s *Schema) SortedPropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JsonString converts the Schema to its JSON representation
// indent: optional bool parameter. If true, formats JSON with indentation. If false or omitted, returns compact JSON.
func (s *Schema) JsonString(indent ...bool) (string, error) {
	shouldIndent := false
	if len(indent) > 0 {
		shouldIndent = indent[0]
	}

	var jsonBytes []byte
	var err error

	if shouldIndent {
		jsonBytes, err = json.MarshalIndent(s, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(s)
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// String returns the compact JSON representation of the schema.
// Returns an error message if marshalling fails
func (s *Schema) String() string {
	jsonStr, err := s.JsonString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return jsonStr
}
