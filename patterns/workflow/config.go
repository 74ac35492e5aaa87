package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
)

// End is the terminal sentinel target.
const End = "END"

// Edge types.
const (
	EdgeNormal      = "normal"
	EdgeConditional = "conditional"
)

// Input formats.
const (
	FormatRaw         = "raw"
	FormatJoin        = "join"
	FormatChatHistory = "chat_history"
	FormatLast        = "last"
	FormatMarkdown    = "markdown"
)

// Output modes.
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
	ModeMessage = "message"
)

// Config is a workflow document.
type Config struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	StateSchema map[string]FieldConfig `json:"state_schema"`
	Nodes       []NodeConfig           `json:"nodes"`
	Edges       []EdgeConfig           `json:"edges"`
	EntryPoint  string                 `json:"entry_point"`
}

// FieldConfig declares one state field.
type FieldConfig struct {
	Type        string `json:"type,omitempty"`
	Reducer     string `json:"reducer,omitempty"`
	IdentityKey string `json:"identity_key,omitempty"`
}

// NodeConfig declares one node. Config is passed to the executor factory
// registered for Kind.
type NodeConfig struct {
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	Config        map[string]any `json:"config,omitempty"`
	InputMapping  *InputMapping  `json:"input_mapping,omitempty"`
	OutputMapping *OutputMapping `json:"output_mapping,omitempty"`
}

// UnmarshalJSON accepts "type" as an alias of "kind".
func (n *NodeConfig) UnmarshalJSON(data []byte) error {
	type plain NodeConfig
	var aux struct {
		plain
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = NodeConfig(aux.plain)
	if n.Kind == "" {
		n.Kind = aux.Type
	}
	return nil
}

// InputMapping selects what a node receives. An empty Source passes the
// whole state.
type InputMapping struct {
	Source    string  `json:"source,omitempty"`
	Format    string  `json:"format,omitempty"`
	Separator *string `json:"separator,omitempty"`
}

// OutputMapping selects where a node result is written. An empty Target
// merges map results into the state and writes anything else to "output".
type OutputMapping struct {
	Target string `json:"target,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// EdgeConfig declares a normal or conditional edge.
type EdgeConfig struct {
	Type           string            `json:"type,omitempty"`
	Source         string            `json:"source"`
	Target         string            `json:"target,omitempty"`
	Default        string            `json:"default,omitempty"`
	ConditionField string            `json:"condition_field,omitempty"`
	ConditionMap   map[string]string `json:"condition_map,omitempty"`
	Conditions     []Condition       `json:"conditions,omitempty"`
}

// IsConditional reports whether e routes on state.
func (e EdgeConfig) IsConditional() bool { return e.Type == EdgeConditional }

// DefaultTarget returns the conditional fallback, END when unset.
func (e EdgeConfig) DefaultTarget() string {
	if e.Default == "" {
		return End
	}
	return e.Default
}

// Targets lists every target e can route to, in declaration order and
// without duplicates.
func (e EdgeConfig) Targets() []string {
	if !e.IsConditional() {
		return []string{e.Target}
	}
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(e.Conditions) > 0 {
		for _, c := range e.Conditions {
			add(c.Target)
		}
	} else {
		keys := make([]string, 0, len(e.ConditionMap))
		for k := range e.ConditionMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(e.ConditionMap[k])
		}
	}
	add(e.DefaultTarget())
	return out
}

// Condition is one branch of an expression router.
type Condition struct {
	Expression string `json:"expression"`
	Target     string `json:"target"`
}

// UnmarshalJSON accepts {"expression": e, "target": t} and the shorthand
// {e: t}.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if expr, ok := raw["expression"]; ok {
		c.Expression, _ = expr.(string)
		c.Target, _ = raw["target"].(string)
		if _, isStr := expr.(string); !isStr {
			return fmt.Errorf("condition expression must be a string, got %T", expr)
		}
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("condition must be {\"expression\", \"target\"} or a single {expression: target} pair, got %d keys", len(raw))
	}
	for expr, target := range raw {
		t, ok := target.(string)
		if !ok {
			return fmt.Errorf("condition %q: target must be a string, got %T", expr, target)
		}
		c.Expression, c.Target = expr, t
	}
	return nil
}
