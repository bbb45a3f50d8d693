// Package ast defines the syntax tree produced by the parser and consumed by
// the semantic checker, the interpreter and the dumper. The node set is
// closed: every node type lives in this package.
package ast

import (
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Program is a parsed program: top-level statements in document order plus
// the function table filled in by function declarations.
type Program struct {
	Statements []Node
	Functions  *FunctionTable
}

// NewProgram creates an empty program with an empty function table.
func NewProgram() *Program {
	return &Program{Functions: NewFunctionTable()}
}

// Node is the interface for all AST nodes.
type Node interface {
	nodeType() string
}

// TypeName returns the node's type name, e.g. "BinaryOp".
func TypeName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.nodeType()
}

// LineOf returns the source line a node starts on, or 0 if unknown.
func LineOf(node Node) int {
	switch n := node.(type) {
	case *NumberLiteral:
		return n.Line
	case *BoolLiteral:
		return n.Line
	case *StringLiteral:
		return n.Line
	case *Identifier:
		return n.Line
	case *UnaryOp:
		return n.Line
	case *BinaryOp:
		return n.Line
	case *VarDeclaration:
		return n.Line
	case *VarAssignment:
		return n.Line
	case *PrintStatement:
		return n.Line
	case *IfStatement:
		return n.Line
	case *Block:
		return n.Line
	case *FunctionCall:
		return n.Line
	}
	return 0
}

// NumberLiteral is a numeric literal already converted to its width.
type NumberLiteral struct {
	Text  string
	Value types.Value
	Line  int
}

func (n *NumberLiteral) nodeType() string { return "NumberLiteral" }

// BoolLiteral is true or false.
type BoolLiteral struct {
	Value bool
	Line  int
}

func (n *BoolLiteral) nodeType() string { return "BoolLiteral" }

// StringLiteral holds the raw interior text of a "..." literal.
type StringLiteral struct {
	Value string
	Line  int
}

func (n *StringLiteral) nodeType() string { return "StringLiteral" }

// Identifier is a variable reference.
type Identifier struct {
	Name string
	Line int
}

func (n *Identifier) nodeType() string { return "Identifier" }

// UnaryOp is a prefix operation (+x, -x, !x).
type UnaryOp struct {
	Op      token.Kind
	Operand Node
	Line    int
}

func (n *UnaryOp) nodeType() string { return "UnaryOp" }

// BinaryOp is an infix operation.
type BinaryOp struct {
	Op    token.Kind
	Left  Node
	Right Node
	Line  int
}

func (n *BinaryOp) nodeType() string { return "BinaryOp" }

// VarDeclaration declares Name with type Type. Init is nil when there is no
// initializer.
type VarDeclaration struct {
	Type types.ValueType
	Name string
	Init Node
	Line int
}

func (n *VarDeclaration) nodeType() string { return "VarDeclaration" }

// VarAssignment assigns Value to an existing variable. Compound forms are
// already desugared into x = x OP rhs.
type VarAssignment struct {
	Name  string
	Value Node
	Line  int
}

func (n *VarAssignment) nodeType() string { return "VarAssignment" }

// PrintStatement prints the canonical text of Expr.
type PrintStatement struct {
	Expr Node
	Line int
}

func (n *PrintStatement) nodeType() string { return "PrintStatement" }

// IfStatement runs Body when Cond is true or numerically equal to 1.
type IfStatement struct {
	Cond Node
	Body *Block
	Line int
}

func (n *IfStatement) nodeType() string { return "IfStatement" }

// Block is a braced statement list with its own scope.
type Block struct {
	Statements []Node
	Line       int
}

func (n *Block) nodeType() string { return "Block" }

// FunctionCall calls a declared function with positional arguments.
type FunctionCall struct {
	Name string
	Args []Node
	Line int
}

func (n *FunctionCall) nodeType() string { return "FunctionCall" }
