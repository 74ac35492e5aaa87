package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is matched by every *SchemaError.
var ErrSchema = errors.New("schema: unresolved model definitions")

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("schema: validation failed")

// Blocked describes one model that could not be built.
type Blocked struct {
	Model string
	// Missing lists referenced names that are defined nowhere.
	Missing []string
	// Circular lists references that lead back to Model.
	Circular []string
	// Pending lists references to other blocked models outside any cycle
	// through Model.
	Pending []string
}

func (b Blocked) String() string {
	var parts []string
	if len(b.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(b.Missing, ", "))
	}
	if len(b.Circular) > 0 {
		parts = append(parts, "circular "+strings.Join(b.Circular, ", "))
	}
	if len(b.Pending) > 0 {
		parts = append(parts, "waiting on "+strings.Join(b.Pending, ", "))
	}
	return b.Model + " (" + strings.Join(parts, "; ") + ")"
}

// SchemaError reports every model a build could not resolve, sorted by name.
type SchemaError struct {
	Unresolved []Blocked
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Unresolved))
	for i, b := range e.Unresolved {
		parts[i] = b.String()
	}
	return fmt.Sprintf("schema: cannot resolve %s", strings.Join(parts, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Names returns the blocked model names.
func (e *SchemaError) Names() []string {
	names := make([]string, len(e.Unresolved))
	for i, b := range e.Unresolved {
		names[i] = b.Model
	}
	return names
}

// DefinitionError reports a malformed field definition (bad type syntax,
// bad constraint value).
type DefinitionError struct {
	Model string
	Field string
	Err   error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("schema: %s.%s: %v", e.Model, e.Field, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// Issue is a single validation failure at Path (dot and bracket notation).
type Issue struct {
	Path    string
	Message string
}

// ValidationError lists every Issue found in a payload.
type ValidationError struct {
	Model  string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		if is.Path == "" {
			parts[i] = is.Message
		} else {
			parts[i] = is.Path + ": " + is.Message
		}
	}
	return fmt.Sprintf("schema: %s: %s", e.Model, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
