// Package value implements the dynamically tagged runtime values of svenska.
package value

import (
	"math"
	"strconv"
)

// DataType is the tag carried by every value and variable binding.
type DataType int

const (
	Undefined DataType = iota
	Number
	String
	Boolean
)

func (t DataType) String() string {
	switch t {
	case Number:
		return "Number"
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	default:
		return "Undefined"
	}
}

// Value is the interface for all runtime values.
// The sealed marker method restricts implementations to this package.
type Value interface {
	Type() DataType
	String() string
	value() // sealed marker
}

// UndefinedValue is the result of any failed evaluation.
type UndefinedValue struct{}

func (UndefinedValue) value() {}
func (UndefinedValue) Type() DataType { return Undefined }
func (UndefinedValue) String() string { return "[Odefinierad]" }

// NumberValue is a double-precision number.
type NumberValue struct {
	Value float64
}

func (NumberValue) value() {}
func (NumberValue) Type() DataType { return Number }

// String renders the number in its shortest round-trip decimal form.
func (n NumberValue) String() string {
	if math.IsInf(n.Value, 1) {
		return "oändligt"
	}
	if math.IsInf(n.Value, -1) {
		return "-oändligt"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// StringValue is a text value.
type StringValue struct {
	Value string
}

func (StringValue) value() {}
func (StringValue) Type() DataType { return String }
func (s StringValue) String() string { return s.Value }

// BooleanValue is sant or falskt.
type BooleanValue struct {
	Value bool
}

func (BooleanValue) value() {}
func (BooleanValue) Type() DataType { return Boolean }

func (b BooleanValue) String() string {
	if b.Value {
		return "sant"
	}
	return "falskt"
}

// NewUndefined returns the undefined value.
func NewUndefined() Value {
	return UndefinedValue{}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return NumberValue{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return StringValue{Value: s}
}

// NewBoolean creates a boolean value.
func NewBoolean(b bool) Value {
	return BooleanValue{Value: b}
}

// TypeOf returns the tag of v, treating nil as Undefined.
func TypeOf(v Value) DataType {
	if v == nil {
		return Undefined
	}
	return v.Type()
}

// IsUndefined reports whether v is nil or the undefined value.
func IsUndefined(v Value) bool {
	return TypeOf(v) == Undefined
}

// Truthy returns the branch interpretation of a value.
// Numbers are truthy when nonzero, every string is truthy, booleans are
// themselves, and undefined is never truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case NumberValue:
		return val.Value != 0
	case StringValue:
		return true
	case BooleanValue:
		return val.Value
	default:
		return false
	}
}

// Equal compares two values loosely: values with the same tag compare by
// value, values with different tags compare by their textual form.
func Equal(a, b Value) bool {
	if IsUndefined(a) || IsUndefined(b) {
		return false
	}
	if a.Type() != b.Type() {
		return a.String() == b.String()
	}
	return StrictEqual(a, b)
}

// StrictEqual requires identical tags and equal payloads.
func StrictEqual(a, b Value) bool {
	switch av := a.(type) {
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.Value == bv.Value
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Value == bv.Value
	case BooleanValue:
		bv, ok := b.(BooleanValue)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}

// Quote renders v the way the debug trace shows variable values.
func Quote(v Value) string {
	if s, ok := v.(StringValue); ok {
		return strconv.Quote(s.Value)
	}
	if v == nil {
		return UndefinedValue{}.String()
	}
	return v.String()
}
