package state

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// Reducer names a merge policy for one state field.
type Reducer string

const (
	// ReducerNone overwrites: last write wins.
	ReducerNone Reducer = "none"
	// ReducerAccumulate concatenates list writes.
	ReducerAccumulate Reducer = "accumulate"
	// ReducerIdentityMerge replaces entries by identity key and appends new ones.
	// Keys match by type and value; numbers compare by value.
	ReducerIdentityMerge Reducer = "identity-merge"
)

// DefaultIdentityKey is the key identity-merge entries are matched on.
const DefaultIdentityKey = "id"

// ErrUnknownReducer is returned by ParseReducer.
var ErrUnknownReducer = errors.New("unknown reducer")

// ParseReducer resolves a reducer name. Accepted aliases: "" (none), "add"
// (accumulate), "add_messages" and "identity_merge" (identity-merge).
func ParseReducer(name string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "overwrite":
		return ReducerNone, nil
	case "accumulate", "add":
		return ReducerAccumulate, nil
	case "identity-merge", "identity_merge", "add_messages":
		return ReducerIdentityMerge, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownReducer, name)
}

// reduce merges update into current according to spec.
func reduce(spec FieldSpec, current, update any) (any, error) {
	switch spec.Reducer {
	case ReducerAccumulate:
		out := append([]any(nil), asList(current)...)
		return append(out, asList(update)...), nil
	case ReducerIdentityMerge:
		return identityMerge(spec.identityKey(), asList(current), asList(update))
	default:
		return update, nil
	}
}

func identityMerge(key string, current, update []any) ([]any, error) {
	out := append([]any(nil), current...)
	index := make(map[any]int, len(out))
	for i, entry := range out {
		if m, ok := entry.(map[string]any); ok {
			if id, ok := m[key]; ok {
				index[identity(id)] = i
			}
		}
	}

	for i, entry := range update {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("identity-merge: element %d is %T, want an object", i, entry)
		}
		id, ok := m[key]
		if !ok || id == nil || id == "" {
			withID := make(map[string]any, len(m)+1)
			for k, v := range m {
				withID[k] = v
			}
			id = uuid.New().String()
			withID[key] = id
			m = withID
		}
		if pos, exists := index[identity(id)]; exists {
			out[pos] = m
			continue
		}
		index[identity(id)] = len(out)
		out = append(out, m)
	}
	return out, nil
}

// identity turns an id into a map key. Ids of different types never match,
// except that numbers compare by value so an id decoded from JSON as
// float64 still matches the int it was saved from. Ids that cannot be map
// keys are keyed by their printed form.
func identity(id any) any {
	if id == nil {
		return nil
	}
	v := reflect.ValueOf(id)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	if !v.Type().Comparable() {
		return fmt.Sprintf("%T:%v", id, id)
	}
	return id
}

// asList treats nil as empty and a non-list value as a single element.
func asList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
