package runtime

import (
	"context"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

func (in *Interpreter) evalUnary(ctx context.Context, n *ast.UnaryOp) (types.Value, error) {
	operand, err := in.eval(ctx, n.Operand)
	if err != nil {
		return types.Null, err
	}
	return unaryOp(n.Op, operand)
}

// evalBinary evaluates both operands eagerly, left first.
func (in *Interpreter) evalBinary(ctx context.Context, n *ast.BinaryOp) (types.Value, error) {
	left, err := in.eval(ctx, n.Left)
	if err != nil {
		return types.Null, err
	}
	right, err := in.eval(ctx, n.Right)
	if err != nil {
		return types.Null, err
	}
	return binaryOp(n.Op, left, right)
}

func unaryOp(op token.Kind, v types.Value) (types.Value, error) {
	t := v.Type()
	switch {
	case t.IsInteger() && op == token.Plus, (t == types.TypeFloat || t == types.TypeDouble) && op == token.Plus:
		return v, nil
	case t.IsInteger() && op == token.Minus:
		return types.NewInteger(t, -v.IntegerBits()), nil
	case (t == types.TypeFloat || t == types.TypeDouble) && op == token.Minus:
		return types.NewFloating(t, -v.FloatBits()), nil
	case t == types.TypeBool && op == token.Bang:
		return types.NewBool(!v.AsBool()), nil
	}
	return types.Null, types.NewOperatorError(op.Spelling(), t)
}

// binaryOp applies op to two values that must carry the same tag. Numeric
// widths are never promoted.
func binaryOp(op token.Kind, left, right types.Value) (types.Value, error) {
	lt, rt := left.Type(), right.Type()
	if lt != rt {
		return types.Null, types.NewMismatchError(lt, rt)
	}

	switch {
	case lt.IsInteger():
		return integerOp(op, lt, left.IntegerBits(), right.IntegerBits())
	case lt == types.TypeFloat || lt == types.TypeDouble:
		return floatOp(op, lt, left.FloatBits(), right.FloatBits())
	case lt == types.TypeBool:
		a, b := left.AsBool(), right.AsBool()
		switch op {
		case token.AndAnd:
			return types.NewBool(a && b), nil
		case token.OrOr:
			return types.NewBool(a || b), nil
		}
	}
	return types.Null, types.NewBinaryOperatorError(op.Spelling(), lt, rt)
}

// integerOp computes in int64 and wraps the result to width t.
func integerOp(op token.Kind, t types.ValueType, a, b int64) (types.Value, error) {
	switch op {
	case token.Plus:
		return types.NewInteger(t, a+b), nil
	case token.Minus:
		return types.NewInteger(t, a-b), nil
	case token.Star:
		return types.NewInteger(t, a*b), nil
	case token.Slash:
		if b == 0 {
			return types.Null, types.NewZeroDivisionError()
		}
		return types.NewInteger(t, a/b), nil
	case token.EqualEqual:
		return types.NewBool(a == b), nil
	case token.BangEqual:
		return types.NewBool(a != b), nil
	}
	return types.Null, types.NewBinaryOperatorError(op.Spelling(), t, t)
}

// floatOp computes in float64 and rounds the result to width t. Division
// by zero follows IEEE 754.
func floatOp(op token.Kind, t types.ValueType, a, b float64) (types.Value, error) {
	switch op {
	case token.Plus:
		return types.NewFloating(t, a+b), nil
	case token.Minus:
		return types.NewFloating(t, a-b), nil
	case token.Star:
		return types.NewFloating(t, a*b), nil
	case token.Slash:
		return types.NewFloating(t, a/b), nil
	case token.EqualEqual:
		return types.NewBool(a == b), nil
	case token.BangEqual:
		return types.NewBool(a != b), nil
	}
	return types.Null, types.NewBinaryOperatorError(op.Spelling(), t, t)
}
