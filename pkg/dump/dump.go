// Package dump renders a parsed program as an indented tree, one node per
// line. Function definitions come first, sorted by name, followed by the
// top-level statements in document order.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/lemonberrylabs/jpp/pkg/ast"
)

const indent = "  "

type printer struct {
	w   io.Writer
	err error
}

// Fprint writes the tree of prog to w.
func Fprint(w io.Writer, prog *ast.Program) error {
	p := &printer{w: w}
	if prog.Functions != nil {
		for _, name := range prog.Functions.Names() {
			fn, _ := prog.Functions.Lookup(name)
			p.function(fn)
		}
	}
	for _, stmt := range prog.Statements {
		p.node(stmt, 0)
	}
	return p.err
}

// String returns the tree of prog as a string.
func String(prog *ast.Program) string {
	var b strings.Builder
	_ = Fprint(&b, prog)
	return b.String()
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, strings.Repeat(indent, depth)+format+"\n", args...)
}

func (p *printer) function(fn *ast.FunctionDef) {
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = param.Type.String() + " " + param.Name
	}
	p.line(0, "FunctionDef %s %s(%s)", fn.ReturnType, fn.Name, strings.Join(params, ", "))
	p.node(fn.Body, 1)
}

func (p *printer) node(node ast.Node, depth int) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		p.line(depth, "NumberLiteral %s (%s)", n.Value, n.Value.Type())
	case *ast.BoolLiteral:
		p.line(depth, "BoolLiteral %t", n.Value)
	case *ast.StringLiteral:
		p.line(depth, "StringLiteral %q", n.Value)
	case *ast.Identifier:
		p.line(depth, "Identifier %s", n.Name)
	case *ast.UnaryOp:
		p.line(depth, "UnaryOp %s", n.Op.Spelling())
		p.node(n.Operand, depth+1)
	case *ast.BinaryOp:
		p.line(depth, "BinaryOp %s", n.Op.Spelling())
		p.node(n.Left, depth+1)
		p.node(n.Right, depth+1)
	case *ast.VarDeclaration:
		p.line(depth, "VarDeclaration %s %s", n.Type, n.Name)
		if n.Init != nil {
			p.node(n.Init, depth+1)
		}
	case *ast.VarAssignment:
		p.line(depth, "VarAssignment %s", n.Name)
		p.node(n.Value, depth+1)
	case *ast.PrintStatement:
		p.line(depth, "PrintStatement")
		p.node(n.Expr, depth+1)
	case *ast.IfStatement:
		p.line(depth, "IfStatement")
		p.node(n.Cond, depth+1)
		p.node(n.Body, depth+1)
	case *ast.Block:
		if n == nil {
			p.line(depth, "Block <nil>")
			return
		}
		p.line(depth, "Block")
		for _, stmt := range n.Statements {
			p.node(stmt, depth+1)
		}
	case *ast.FunctionCall:
		p.line(depth, "FunctionCall %s", n.Name)
		for _, arg := range n.Args {
			p.node(arg, depth+1)
		}
	default:
		p.line(depth, "%s", ast.TypeName(node))
	}
}
