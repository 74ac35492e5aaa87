package parse

import (
	"errors"
	"reflect"
	"testing"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"plain object", `{"score": 90, "ok": true}`, map[string]any{"score": 90.0, "ok": true}},
		{"array", `[1, 2]`, []any{1.0, 2.0}},
		{"scalar string", `"hi"`, "hi"},
		{"code fence", "```json\n{\"a\": 1}\n```", map[string]any{"a": 1.0}},
		{"prose around object", `Sure! Here it is: {"a": "b"} Hope that helps.`, map[string]any{"a": "b"}},
		{"single quotes and bare keys", `{name: 'John', age: 30}`, map[string]any{"name": "John", "age": 30.0}},
		{"trailing comma", `{"a": [1, 2,],}`, map[string]any{"a": []any{1.0, 2.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.input)
			if err != nil {
				t.Fatalf("Value(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Value(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValue_Empty(t *testing.T) {
	if _, err := Value("   "); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestObject_RejectsNonObject(t *testing.T) {
	if _, err := Object(`[1]`); err == nil {
		t.Error("expected error for array input")
	}
	obj, err := Object(`{"k": "v"}`)
	if err != nil || obj["k"] != "v" {
		t.Errorf("Object = %v, %v", obj, err)
	}
}

func TestUnwrap(t *testing.T) {
	in := map[string]any{
		"name": map[string]any{"type": "string", "value": "John"},
		"tags": []any{map[string]any{"type": "string", "value": "x"}},
		"kind": map[string]any{"type": "person", "extra": 1},
	}
	want := map[string]any{
		"name": "John",
		"tags": []any{"x"},
		"kind": map[string]any{"type": "person", "extra": 1},
	}
	if got := Unwrap(in); !reflect.DeepEqual(got, want) {
		t.Errorf("Unwrap = %#v, want %#v", got, want)
	}
}
