package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when content holds nothing that decodes as JSON.
var ErrNoJSON = errors.New("parse: no JSON value found")

// Value decodes content into a generic JSON value (map[string]any, []any,
// string, float64, bool or nil).
//
//	v, err := parse.Value("```json\n{name: 'John', age: 30}\n```")
//	// v == map[string]any{"name": "John", "age": 30.0}
func Value(content string) (any, error) {
	candidate := extractCandidate(content)
	if candidate == "" {
		return nil, ErrNoJSON
	}

	var out any
	err := json.Unmarshal([]byte(candidate), &out)
	if err == nil {
		return out, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, fmt.Errorf("%w: unmarshal error: %v, repair error: %v", ErrNoJSON, err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("%w: repaired JSON still invalid: %v", ErrNoJSON, err)
	}
	return out, nil
}

// Object is Value restricted to JSON objects.
func Object(content string) (map[string]any, error) {
	v, err := Value(content)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse: expected a JSON object, got %T", v)
	}
	return obj, nil
}

// Unwrap replaces every {"type": t, "value": v} map with v, recursively.
// Models sometimes confuse a schema definition with the data it describes.
//
//	{"name": {"type": "string", "value": "John"}}  ->  {"name": "John"}
func Unwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if inner, hasValue := v["value"]; hasValue && len(v) == 2 {
				return Unwrap(inner)
			}
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = Unwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Unwrap(val)
		}
		return out
	default:
		return data
	}
}

// extractCandidate trims prose and code fences around the first JSON object
// or array in content.
func extractCandidate(content string) string {
	s := strings.TrimSpace(content)
	if s == "" {
		return ""
	}

	if fence := strings.Index(s, "```"); fence >= 0 {
		body := s[fence+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		s = strings.TrimSpace(body)
	}

	if s[0] == '{' || s[0] == '[' {
		return s
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}
