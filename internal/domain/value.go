package domain

import "math"

// ValueKind identifies the type of a cell value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindFloat
	KindBool
	KindString
)

// Value is a nullable cell in a named table. "Missing" is a first-class
// value (KindNull), never an error and never a silent zero.
type Value struct {
	Kind ValueKind
	F    float64
	B    bool
	S    string
}

// Null returns a missing value.
func Null() Value { return Value{Kind: KindNull} }

// Float wraps a finite float64. NaN and infinities collapse to Null so
// upstream arithmetic glitches surface as "missing", not as poison values.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{Kind: KindFloat, F: f}
}

// FloatPtr wraps an optional float64, mapping nil to Null.
func FloatPtr(f *float64) Value {
	if f == nil {
		return Null()
	}
	return Float(*f)
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsFloat returns the numeric value and whether one is present.
func (v Value) AsFloat() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F, true
}

// AsBool returns the boolean value and whether one is present.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsString returns the string value and whether one is present.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// FloatOrNil returns the numeric value as an optional pointer.
func (v Value) FloatOrNil() *float64 {
	if v.Kind != KindFloat {
		return nil
	}
	f := v.F
	return &f
}
