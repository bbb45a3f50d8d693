package token

// Binding powers. A higher value binds tighter.
const (
	PrecLogical        = 1 // == != && ||
	PrecAdditive       = 2 // + -
	PrecMultiplicative = 3 // * /
	PrecUnary          = 4 // + - !
)

// UnaryPrecedence returns the binding power of k used as a prefix operator,
// or 0 if k is not a prefix operator.
func UnaryPrecedence(k Kind) int {
	switch k {
	case Plus, Minus, Bang:
		return PrecUnary
	}
	return 0
}

// BinaryPrecedence returns the binding power of k used as an infix operator,
// or 0 if k is not an infix operator.
func BinaryPrecedence(k Kind) int {
	switch k {
	case EqualEqual, BangEqual, AndAnd, OrOr:
		return PrecLogical
	case Plus, Minus:
		return PrecAdditive
	case Star, Slash:
		return PrecMultiplicative
	}
	return 0
}

// CompoundOperator returns the binary operator a compound assignment
// desugars to (x += e is x = x + e). ok is false for = and non-assignments.
func CompoundOperator(k Kind) (op Kind, ok bool) {
	switch k {
	case PlusPlus, PlusPlusPlus, PlusEqual:
		return Plus, true
	case MinusMinus, MinusEqual:
		return Minus, true
	case StarEqual:
		return Star, true
	case SlashEqual:
		return Slash, true
	}
	return 0, false
}
