package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("workflow: invalid config")
	// ErrMaxSteps is returned when a run exceeds its step budget.
	ErrMaxSteps = errors.New("workflow: step limit exceeded")
)

// ConfigError lists every problem found in a workflow config. Err, when
// set, joins the underlying causes (schema, executor or expression errors).
type ConfigError struct {
	Problems []string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("workflow: invalid config: %s", strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfig}
	}
	return []error{ErrConfig, e.Err}
}

// NodeError wraps the failure of one node invocation.
type NodeError struct {
	Node string
	Step int
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
