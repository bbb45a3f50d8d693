package types

import (
	"fmt"
	"strconv"
	"strings"
)

// NewInteger creates an integer value of width t from v, wrapping v to the
// width the way a two's complement cast does. Panics if t is not an integer
// type.
func NewInteger(t ValueType, v int64) Value {
	switch t {
	case TypeShort:
		return NewShort(int16(v))
	case TypeInt:
		return NewInt(int32(v))
	case TypeLong:
		return NewLong(v)
	}
	panic(fmt.Sprintf("NewInteger called with %s", t))
}

// NewFloating creates a float or double value from v, rounding to float32
// for TypeFloat. Panics if t is not a float type.
func NewFloating(t ValueType, v float64) Value {
	switch t {
	case TypeFloat:
		return NewFloat(float32(v))
	case TypeDouble:
		return NewDouble(v)
	}
	panic(fmt.Sprintf("NewFloating called with %s", t))
}

// IntegerBits returns the sign-extended payload of an integer value.
// Panics if v is not an integer.
func (v Value) IntegerBits() int64 {
	if !v.typ.IsInteger() {
		panic(fmt.Sprintf("IntegerBits called on %s value", v.typ))
	}
	return v.i
}

// FloatBits returns the payload of a float or double value widened to
// float64. Panics if v is not a float type.
func (v Value) FloatBits() float64 {
	if v.typ != TypeFloat && v.typ != TypeDouble {
		panic(fmt.Sprintf("FloatBits called on %s value", v.typ))
	}
	return v.f
}

// ParseNumber converts the raw text of a number literal into a value of
// width t. Integer widths use the digits before any '.'; a literal that does
// not fit the width is a ValueError.
func ParseNumber(text string, t ValueType) (Value, error) {
	switch t {
	case TypeShort, TypeInt, TypeLong:
		digits := text
		if i := strings.IndexByte(digits, '.'); i >= 0 {
			digits = digits[:i]
		}
		bits := 64
		switch t {
		case TypeShort:
			bits = 16
		case TypeInt:
			bits = 32
		}
		n, err := strconv.ParseInt(digits, 10, bits)
		if err != nil {
			return Null, NewValueError(fmt.Sprintf("Number literal '%s' out of range for %s", text, t))
		}
		return NewInteger(t, n), nil
	case TypeFloat, TypeDouble:
		bits := 64
		if t == TypeFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return Null, NewValueError(fmt.Sprintf("Number literal '%s' out of range for %s", text, t))
		}
		return NewFloating(t, f), nil
	}
	return Null, NewTypeError(fmt.Sprintf("Number literal '%s' cannot be a %s", text, t))
}
