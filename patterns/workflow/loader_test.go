package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const chatDoc = `{
  "name": "chat_workflow",
  "description": "intent routing",
  "state_schema": {
    "messages": {"type": "list", "reducer": "add"},
    "intent": {"type": "str"},
    "output": {"type": "str"}
  },
  "entry_point": "intent_classifier",
  "nodes": [
    {"name": "intent_classifier", "type": "llm", "config": {
      "system_prompt": "classify", "temperature": 0.0,
      "need_structure_output": true,
      "output_schema": {"intent": {"type": "str", "description": "question/chat/task"}}
    }},
    {"name": "chat_handler", "kind": "llm", "config": {"temperature": 0.7}},
    {"name": "task_handler", "type": "code", "config": {"custom_code": "result := map[string]any{\"output\": \"queued\"}"}}
  ],
  "edges": [
    {"type": "conditional", "source": "intent_classifier", "condition_field": "intent",
     "condition_map": {"chat": "chat_handler", "task": "task_handler"}, "default": "chat_handler"},
    {"type": "normal", "source": "chat_handler", "target": "END"},
    {"source": "task_handler", "target": "END"}
  ]
}`

const chatYAML = `
name: chat_workflow
description: intent routing
state_schema:
  messages: {type: list, reducer: add}
  intent: {type: str}
  output: {type: str}
entry_point: intent_classifier
nodes:
  - name: intent_classifier
    type: llm
    config:
      system_prompt: classify
      temperature: 0.0
      need_structure_output: true
      output_schema:
        intent: {type: str, description: question/chat/task}
  - name: chat_handler
    kind: llm
    config: {temperature: 0.7}
  - name: task_handler
    type: code
    config:
      custom_code: 'result := map[string]any{"output": "queued"}'
edges:
  - type: conditional
    source: intent_classifier
    condition_field: intent
    condition_map: {chat: chat_handler, task: task_handler}
    default: chat_handler
  - {type: normal, source: chat_handler, target: END}
  - {source: task_handler, target: END}
`

func TestLoadBytes(t *testing.T) {
	cfg := mustLoad(t, chatDoc)

	if cfg.Name != "chat_workflow" || cfg.EntryPoint != "intent_classifier" {
		t.Fatalf("unexpected header: %+v", cfg)
	}
	if len(cfg.Nodes) != 3 || len(cfg.Edges) != 3 {
		t.Fatalf("got %d nodes, %d edges", len(cfg.Nodes), len(cfg.Edges))
	}
	if cfg.Nodes[0].Kind != "llm" || cfg.Nodes[1].Kind != "llm" || cfg.Nodes[2].Kind != "code" {
		t.Errorf("kind/type alias not resolved: %q %q %q", cfg.Nodes[0].Kind, cfg.Nodes[1].Kind, cfg.Nodes[2].Kind)
	}
	if cfg.StateSchema["messages"].Reducer != "add" {
		t.Errorf("reducer = %q", cfg.StateSchema["messages"].Reducer)
	}
	if got := cfg.Edges[0].Targets(); !reflect.DeepEqual(got, []string{"chat_handler", "task_handler"}) {
		t.Errorf("conditional targets = %v", got)
	}
}

func TestLoadYAMLMatchesJSON(t *testing.T) {
	fromJSON := mustLoad(t, chatDoc)
	fromYAML, err := LoadYAML([]byte(chatYAML))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("YAML and JSON documents differ:\njson: %+v\nyaml: %+v", fromJSON, fromYAML)
	}

	h1, _ := configHash(fromJSON)
	h2, _ := configHash(fromYAML)
	if h1 != h2 {
		t.Error("equivalent documents must hash equally")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "wf.json")
	yamlPath := filepath.Join(dir, "wf.yml")
	if err := os.WriteFile(jsonPath, []byte(chatDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(chatYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if cfg.Name != "chat_workflow" {
			t.Errorf("%s: name = %q", path, cfg.Name)
		}
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMap_MissingKeys(t *testing.T) {
	_, err := LoadMap(map[string]any{"name": "x", "nodes": []any{}})

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrConfig) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	for _, key := range []string{"state_schema", "edges", "entry_point"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should name %q: %v", key, err)
		}
	}
}

func TestCondition_Shorthand(t *testing.T) {
	cfg := mustLoad(t, `{
	  "name": "g", "state_schema": {}, "entry_point": "a",
	  "nodes": [{"name": "a", "kind": "code", "config": {"source": "result := 1"}}],
	  "edges": [{"type": "conditional", "source": "a", "conditions": [
	    {"score > 80": "A"},
	    {"expression": "score > 50", "target": "B"}
	  ], "default": "C"}]
	}`)

	want := []Condition{{"score > 80", "A"}, {"score > 50", "B"}}
	if got := cfg.Edges[0].Conditions; !reflect.DeepEqual(got, want) {
		t.Errorf("conditions = %+v", got)
	}
	if got := cfg.Edges[0].Targets(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("targets = %v", got)
	}
}

func TestCondition_InvalidShorthand(t *testing.T) {
	_, err := LoadBytes([]byte(`{
	  "name": "g", "state_schema": {}, "entry_point": "a", "nodes": [],
	  "edges": [{"type": "conditional", "source": "a", "conditions": [{"x > 1": "A", "y > 1": "B"}]}]
	}`))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestEdgeConfig_DefaultTargetIsEnd(t *testing.T) {
	e := EdgeConfig{Type: EdgeConditional, ConditionField: "f", ConditionMap: map[string]string{"x": "a"}}
	if e.DefaultTarget() != End {
		t.Errorf("default = %q", e.DefaultTarget())
	}
}
