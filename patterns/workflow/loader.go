package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var requiredKeys = []string{"name", "state_schema", "nodes", "edges", "entry_point"}

// LoadFile reads a workflow document. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return LoadBytes(data)
	}
}

// LoadBytes decodes a JSON workflow document.
func LoadBytes(data []byte) (*Config, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: decode config: %w", err)
	}
	return LoadMap(doc)
}

// LoadYAML decodes a YAML workflow document.
func LoadYAML(data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: decode yaml config: %w", err)
	}
	normalized, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("workflow: yaml config must be a mapping")
	}
	return LoadMap(normalized)
}

// LoadMap builds a Config from a decoded document. Missing top-level keys
// are reported together as a *ConfigError.
func LoadMap(doc map[string]any) (*Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if _, ok := doc[key]; !ok {
			missing = append(missing, fmt.Sprintf("missing required key %q", key))
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Problems: missing}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Problems: []string{err.Error()}, Err: err}
	}
	return &cfg, nil
}

// normalize converts YAML-decoded values into the shapes encoding/json
// produces for untyped documents, so both formats compile the same.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
