package value

import (
	"encoding/json"
	"math"
)

// ToJSON marshals a value to JSON bytes.
// Numbers output integers without decimal point; undefined becomes null.
func ToJSON(v Value) ([]byte, error) {
	return json.Marshal(toRaw(v))
}

func toRaw(v Value) any {
	switch val := v.(type) {
	case NumberValue:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return val.String()
		}
		if val.Value == math.Trunc(val.Value) && val.Value >= math.MinInt64 && val.Value <= math.MaxInt64 {
			return int64(val.Value)
		}
		return val.Value
	case StringValue:
		return val.Value
	case BooleanValue:
		return val.Value
	default:
		return nil
	}
}

// FromRaw converts a decoded JSON or YAML scalar back into a value.
// Anything that is not a number, string or boolean is undefined.
func FromRaw(raw any) Value {
	switch r := raw.(type) {
	case float64:
		return NewNumber(r)
	case int:
		return NewNumber(float64(r))
	case int64:
		return NewNumber(float64(r))
	case string:
		return NewString(r)
	case bool:
		return NewBoolean(r)
	default:
		return NewUndefined()
	}
}
