package token

import "github.com/lemonberrylabs/jpp/pkg/types"

// DeclaredType maps a type keyword to the value type it declares.
func DeclaredType(k Kind) (types.ValueType, bool) {
	switch k {
	case BoolType:
		return types.TypeBool, true
	case ShortType:
		return types.TypeShort, true
	case IntType:
		return types.TypeInt, true
	case LongType:
		return types.TypeLong, true
	case FloatType:
		return types.TypeFloat, true
	case DoubleType:
		return types.TypeDouble, true
	}
	return types.TypeNull, false
}
