package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/leofalp/aigraph/internal/utils"
)

// Validate checks payload against m and returns a normalized copy: defaults
// filled in, integral numbers of int fields converted to int, undeclared keys
// dropped (permissive) or reported (strict). Every problem is collected into
// a single *ValidationError.
func (m *Model) Validate(payload any) (map[string]any, error) {
	v := &validator{}
	out := v.model(m, toGeneric(payload), "")
	if len(v.issues) > 0 {
		return nil, &ValidationError{Model: m.Name, Issues: v.issues}
	}
	return out.(map[string]any), nil
}

type validator struct {
	issues []Issue
}

func (v *validator) fail(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) model(m *Model, value any, path string) any {
	obj, ok := value.(map[string]any)
	if !ok {
		v.fail(path, "expected object %s, got %s", m.Name, describe(value))
		return nil
	}

	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		fieldPath := join(path, f.Name)
		raw, present := obj[f.Name]
		if !present {
			switch {
			case f.Required:
				v.fail(fieldPath, "field required")
			case f.HasDefault:
				out[f.Name] = f.Default
			default:
				out[f.Name] = nil
			}
			continue
		}
		out[f.Name] = v.field(f, raw, fieldPath)
	}

	if m.Strict {
		for _, key := range sortedKeys(obj) {
			if m.Field(key) == nil {
				v.fail(join(path, key), "extra field not permitted")
			}
		}
	}
	return out
}

func (v *validator) field(f *Field, raw any, path string) any {
	before := len(v.issues)
	val := v.value(f.Type, raw, path)
	if len(v.issues) > before || val == nil {
		return val
	}
	v.constraints(f.Constraints, val, path)
	return val
}

func (v *validator) value(t *Type, raw any, path string) any {
	switch t.Kind {
	case KindAny:
		return raw
	case KindString:
		s, ok := raw.(string)
		if !ok {
			v.fail(path, "expected string, got %s", describe(raw))
		}
		return s
	case KindInt:
		if _, isBool := raw.(bool); isBool || !utils.IsIntegral(raw) {
			v.fail(path, "expected integer, got %s", describe(raw))
			return raw
		}
		f, _ := utils.ToFloat64(raw)
		return int(f)
	case KindFloat:
		f, ok := utils.ToFloat64(raw)
		if !ok {
			v.fail(path, "expected number, got %s", describe(raw))
			return raw
		}
		return f
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			v.fail(path, "expected boolean, got %s", describe(raw))
		}
		return b
	case KindOptional:
		if raw == nil {
			return nil
		}
		return v.value(t.Elem, raw, path)
	case KindList:
		items, ok := raw.([]any)
		if !ok {
			v.fail(path, "expected list, got %s", describe(raw))
			return raw
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = v.value(t.Elem, item, path+"["+strconv.Itoa(i)+"]")
		}
		return out
	case KindDict:
		obj, ok := raw.(map[string]any)
		if !ok {
			v.fail(path, "expected object, got %s", describe(raw))
			return raw
		}
		out := make(map[string]any, len(obj))
		for _, key := range sortedKeys(obj) {
			if t.Key.Kind == KindInt {
				if _, err := strconv.Atoi(key); err != nil {
					v.fail(join(path, key), "key is not an integer")
				}
			}
			out[key] = v.value(t.Value, obj[key], join(path, key))
		}
		return out
	case KindUnion:
		for _, variant := range t.Variants {
			probe := &validator{}
			if out := probe.value(variant, raw, path); len(probe.issues) == 0 {
				return out
			}
		}
		v.fail(path, "value %s matches none of %s", describe(raw), t)
		return raw
	case KindModel:
		return v.model(t.Model, raw, path)
	}
	v.fail(path, "unresolved type %s", t)
	return raw
}

func (v *validator) constraints(c Constraints, val any, path string) {
	if c.Empty() {
		return
	}

	length := -1
	switch x := val.(type) {
	case string:
		length = utf8.RuneCountInString(x)
		if c.pattern != nil && !c.pattern.MatchString(x) {
			v.fail(path, "does not match pattern %q", c.Pattern)
		}
	case []any:
		length = len(x)
	}
	if length >= 0 {
		if c.MinLength != nil && length < *c.MinLength {
			v.fail(path, "length %d is below min_length %d", length, *c.MinLength)
		}
		if c.MaxLength != nil && length > *c.MaxLength {
			v.fail(path, "length %d exceeds max_length %d", length, *c.MaxLength)
		}
	}

	if _, isBool := val.(bool); !isBool {
		if n, ok := utils.ToFloat64(val); ok {
			if c.Ge != nil && n < *c.Ge {
				v.fail(path, "%v is less than %v", n, *c.Ge)
			}
			if c.Gt != nil && n <= *c.Gt {
				v.fail(path, "%v is not greater than %v", n, *c.Gt)
			}
			if c.Le != nil && n > *c.Le {
				v.fail(path, "%v is greater than %v", n, *c.Le)
			}
			if c.Lt != nil && n >= *c.Lt {
				v.fail(path, "%v is not less than %v", n, *c.Lt)
			}
			if c.MultipleOf != nil {
				q := n / *c.MultipleOf
				if math.Abs(q-math.Round(q)) > 1e-9 {
					v.fail(path, "%v is not a multiple of %v", n, *c.MultipleOf)
				}
			}
		}
	}

	if len(c.Enum) > 0 && !inEnum(c.Enum, val) {
		v.fail(path, "%s is not one of %s", describe(val), utils.JSONToString(c.Enum))
	}
}

func inEnum(enum []any, val any) bool {
	for _, candidate := range enum {
		if a, ok := utils.ToFloat64(candidate); ok {
			if b, ok := utils.ToFloat64(val); ok && a == b {
				return true
			}
			continue
		}
		if reflect.DeepEqual(candidate, val) {
			return true
		}
	}
	return false
}

// toGeneric converts typed maps and slices (map[string]string, []string,
// structs, ...) at any depth into the shape produced by encoding/json.
func toGeneric(v any) any {
	switch v.(type) {
	case nil, string, bool, float64, int:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T(%s)", v, utils.TruncateString(utils.Stringify(v), 40))
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
