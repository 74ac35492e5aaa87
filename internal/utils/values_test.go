package utils

import (
	"encoding/json"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{"int", 3, 3, true},
		{"float", 2.5, 2.5, true},
		{"json number", json.Number("12"), 12, true},
		{"string", "12", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToFloat64(%v) = %v, %v; want %v, %v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"chat", "chat"},
		{85.0, "85"},
		{85.5, "85.5"},
		{7, "7"},
		{true, "true"},
		{nil, "None"},
		{[]any{"a", 1.0}, `["a",1]`},
	}

	for _, tt := range tests {
		if got := Stringify(tt.value); got != tt.want {
			t.Errorf("Stringify(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := TruncateString("abcdefghij", 3); got != "abc... (truncated, total: 10 chars)" {
		t.Errorf("unexpected truncation: %q", got)
	}
}
