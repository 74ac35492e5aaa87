package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// ToFloat64 converts any Go or JSON-decoded numeric value to float64.
// Booleans and strings are not numbers and report false.
func ToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// IsIntegral reports whether value is a number without a fractional part.
func IsIntegral(value any) bool {
	f, ok := ToFloat64(value)
	if !ok {
		return false
	}
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Stringify renders value as text. Strings are returned unchanged, integral
// floats lose their fractional zero ("85", not "85.0"), nil becomes "None"
// and composite values are rendered as JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	if f, ok := ToFloat64(value); ok {
		if IsIntegral(value) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return JSONToString(value)
}
