// Package types defines the runtime values and errors shared by every stage
// of the jpp pipeline. Values form a closed tagged union over the five
// numeric widths plus bool, string, null and void.
package types

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is the tag of a runtime value. The declarable types (bool and
// the numeric widths) double as declared variable types.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeVoid             // result of a call or a statement
	TypeBool             // bool
	TypeShort            // int16
	TypeInt              // int32
	TypeLong             // int64
	TypeFloat            // float32
	TypeDouble           // float64
	TypeString           // string
)

// String returns the type name as it is spelled in source.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether t is one of the five numeric widths.
func (t ValueType) IsNumeric() bool {
	return t >= TypeShort && t <= TypeDouble
}

// IsInteger reports whether t is short, int or long.
func (t ValueType) IsInteger() bool {
	return t >= TypeShort && t <= TypeLong
}

// Value is a jpp runtime value. Integer widths are held sign-extended in i,
// float widths in f (a float is always exactly representable as float32).
type Value struct {
	typ ValueType
	b   bool
	i   int64
	f   float64
	s   string
}

// Null is the value of a declared but uninitialized variable.
var Null = Value{typ: TypeNull}

// Void is the result of evaluating a function call.
var Void = Value{typ: TypeVoid}

// NewBool creates a bool value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, b: v}
}

// NewShort creates a 16-bit integer value.
func NewShort(v int16) Value {
	return Value{typ: TypeShort, i: int64(v)}
}

// NewInt creates a 32-bit integer value.
func NewInt(v int32) Value {
	return Value{typ: TypeInt, i: int64(v)}
}

// NewLong creates a 64-bit integer value.
func NewLong(v int64) Value {
	return Value{typ: TypeLong, i: v}
}

// NewFloat creates a 32-bit float value.
func NewFloat(v float32) Value {
	return Value{typ: TypeFloat, f: float64(v)}
}

// NewDouble creates a 64-bit float value.
func NewDouble(v float64) Value {
	return Value{typ: TypeDouble, f: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, s: v}
}

// Type returns the value's tag.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// AsBool returns the bool value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.b
}

// AsShort returns the short value. Panics if not a short.
func (v Value) AsShort() int16 {
	if v.typ != TypeShort {
		panic(fmt.Sprintf("AsShort called on %s value", v.typ))
	}
	return int16(v.i)
}

// AsInt returns the int value. Panics if not an int.
func (v Value) AsInt() int32 {
	if v.typ != TypeInt {
		panic(fmt.Sprintf("AsInt called on %s value", v.typ))
	}
	return int32(v.i)
}

// AsLong returns the long value. Panics if not a long.
func (v Value) AsLong() int64 {
	if v.typ != TypeLong {
		panic(fmt.Sprintf("AsLong called on %s value", v.typ))
	}
	return v.i
}

// AsFloat returns the float value. Panics if not a float.
func (v Value) AsFloat() float32 {
	if v.typ != TypeFloat {
		panic(fmt.Sprintf("AsFloat called on %s value", v.typ))
	}
	return float32(v.f)
}

// AsDouble returns the double value. Panics if not a double.
func (v Value) AsDouble() float64 {
	if v.typ != TypeDouble {
		panic(fmt.Sprintf("AsDouble called on %s value", v.typ))
	}
	return v.f
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.s
}

// Equal reports whether two values carry the same tag and payload. There is
// no cross-width comparison.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNull, TypeVoid:
		return true
	case TypeBool:
		return v.b == other.b
	case TypeShort, TypeInt, TypeLong:
		return v.i == other.i
	case TypeFloat, TypeDouble:
		return v.f == other.f
	case TypeString:
		return v.s == other.s
	}
	return false
}

// String returns the canonical printed form of the value. Floats are
// formatted with six significant digits.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeVoid:
		return "void"
	case TypeBool:
		if v.b {
			return "true"
		}
		return "false"
	case TypeShort, TypeInt, TypeLong:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloat(v.f, 32)
	case TypeDouble:
		return formatFloat(v.f, 64)
	case TypeString:
		return v.s
	}
	return "<unknown>"
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', 6, bitSize)
}
