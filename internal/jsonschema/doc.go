// Package jsonschema provides the JSON Schema document type shared by the
// schema factory (which exports its type descriptors to it) and the LLM
// transports (which send it as a structured-output contract).
//
// Only the subset of the standard needed for structured model output is
// modelled: object/array/scalar types, required properties, numeric and
// string constraints, enums, anyOf unions and $ref/$defs for named models.
package jsonschema
