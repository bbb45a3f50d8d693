// Package semantic implements a best-effort type consistency pass over a
// parsed program. It never rewrites the tree; each visit returns a witness
// type used only for the comparisons of its parent.
package semantic

import (
	"fmt"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/scope"
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Options controls which problems are reported.
type Options struct {
	// ReportTypeMismatch surfaces operand, initializer and assignment type
	// mismatches. Unresolved identifiers and redeclarations are always
	// reported.
	ReportTypeMismatch bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{ReportTypeMismatch: true}
}

// witness is the statically known type of an expression. Unknown witnesses
// suppress every comparison they take part in.
type witness struct {
	typ   types.ValueType
	known bool
}

var unknown = witness{}

func known(t types.ValueType) witness {
	return witness{typ: t, known: true}
}

// Checker walks a program with its own scope stack.
type Checker struct {
	opts   Options
	scopes *scope.Stack
	errors types.ErrorList
}

// New creates a checker with an empty global scope.
func New(opts Options) *Checker {
	return &Checker{opts: opts, scopes: scope.NewStack()}
}

// Check runs a fresh checker over prog and returns its errors as a
// types.ErrorList, or nil.
func Check(prog *ast.Program, opts Options) error {
	return New(opts).Check(prog).Err()
}

// Check visits every top-level statement in order and returns all errors
// found. Function bodies are not visited.
func (c *Checker) Check(prog *ast.Program) types.ErrorList {
	for _, stmt := range prog.Statements {
		if stmt == nil {
			continue
		}
		c.visit(stmt)
	}
	return c.errors
}

func (c *Checker) report(err *types.Error, line int) {
	c.errors = append(c.errors, err.AtLine(line))
}

func (c *Checker) visit(node ast.Node) witness {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return known(n.Value.Type())
	case *ast.BoolLiteral:
		return known(types.TypeBool)
	case *ast.StringLiteral:
		return known(types.TypeString)
	case *ast.Identifier:
		v, err := c.scopes.Get(n.Name)
		if err != nil {
			c.report(types.AsError(err), n.Line)
			return unknown
		}
		return known(v.Type)
	case *ast.UnaryOp:
		c.visit(n.Operand)
		return unknown
	case *ast.BinaryOp:
		return c.visitBinary(n)
	case *ast.VarDeclaration:
		c.visitDeclaration(n)
	case *ast.VarAssignment:
		c.visitAssignment(n)
	case *ast.PrintStatement:
		c.visit(n.Expr)
	case *ast.Block:
		c.scopes.Push()
		for _, stmt := range n.Statements {
			c.visit(stmt)
		}
		c.scopes.Pop()
	case *ast.IfStatement, *ast.FunctionCall:
		// Accepted without checking.
	}
	return unknown
}

func (c *Checker) visitBinary(n *ast.BinaryOp) witness {
	left := c.visit(n.Left)
	right := c.visit(n.Right)
	if !left.known || !right.known {
		return unknown
	}

	var (
		result types.ValueType
		err    *types.Error
	)
	switch n.Op {
	case token.Plus, token.Minus, token.Star, token.Slash, token.EqualEqual, token.BangEqual:
		switch {
		case left.typ != right.typ:
			err = types.NewMismatchError(left.typ, right.typ)
		case !left.typ.IsNumeric():
			err = types.NewBinaryOperatorError(n.Op.Spelling(), left.typ, right.typ)
		case n.Op == token.EqualEqual || n.Op == token.BangEqual:
			result = types.TypeBool
		default:
			result = left.typ
		}
	case token.AndAnd, token.OrOr:
		switch {
		case left.typ != right.typ:
			err = types.NewMismatchError(left.typ, right.typ)
		case left.typ != types.TypeBool:
			err = types.NewBinaryOperatorError(n.Op.Spelling(), left.typ, right.typ)
		default:
			result = types.TypeBool
		}
	default:
		return unknown
	}

	if err != nil {
		if c.opts.ReportTypeMismatch {
			c.report(err, n.Line)
		}
		return unknown
	}
	return known(result)
}

func (c *Checker) visitDeclaration(n *ast.VarDeclaration) {
	init := unknown
	if n.Init != nil {
		init = c.visit(n.Init)
	}
	if err := c.scopes.Declare(scope.Variable{Name: n.Name, Type: n.Type, Value: types.Null}); err != nil {
		c.report(types.AsError(err), n.Line)
		return
	}
	if c.opts.ReportTypeMismatch && init.known && init.typ != n.Type {
		c.report(types.NewTypeError(fmt.Sprintf("cannot initialize '%s' of type %s with value of type %s", n.Name, n.Type, init.typ)), n.Line)
	}
}

func (c *Checker) visitAssignment(n *ast.VarAssignment) {
	value := c.visit(n.Value)
	v, err := c.scopes.Get(n.Name)
	if err != nil {
		c.report(types.AsError(err), n.Line)
		return
	}
	if c.opts.ReportTypeMismatch && value.known && value.typ != v.Type {
		c.report(types.NewTypeError(fmt.Sprintf("cannot assign value of type %s to '%s' of type %s", value.typ, n.Name, v.Type)), n.Line)
	}
}
