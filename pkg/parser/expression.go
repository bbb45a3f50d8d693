package parser

import (
	"fmt"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// parseExpression is the entry point for expressions.
// Precedence (low to high):
//
//	== != && ||
//	+ -
//	* /
//	unary + - !
//	literals, identifiers, calls, parentheses
func (p *Parser) parseExpression() ast.Node {
	return p.parseBinary(0)
}

// parseBinary parses operators binding tighter than floor. The right operand
// of each operator is parsed with that operator's precedence as the new
// floor, which makes equal-precedence chains left associative.
func (p *Parser) parseBinary(floor int) ast.Node {
	var left ast.Node

	tok := p.current()
	if prec := token.UnaryPrecedence(tok.Kind); prec != 0 && prec >= floor {
		p.advance()
		operand := p.parseBinary(prec)
		if operand == nil {
			return nil
		}
		left = &ast.UnaryOp{Op: tok.Kind, Operand: operand, Line: tok.Line}
	} else {
		left = p.parsePrimary()
		if left == nil {
			return nil
		}
	}

	for {
		op := p.current()
		prec := token.BinaryPrecedence(op.Kind)
		if prec == 0 || prec <= floor {
			break
		}
		p.advance()
		right := p.parseBinary(prec)
		if right == nil {
			return nil
		}
		left = &ast.BinaryOp{Op: op.Kind, Left: left, Right: right, Line: op.Line}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.current()

	switch tok.Kind {
	case token.Number:
		return p.parseNumber()
	case token.String:
		p.advance()
		return &ast.StringLiteral{Value: tok.Text, Line: tok.Line}
	case token.True:
		p.advance()
		return &ast.BoolLiteral{Value: true, Line: tok.Line}
	case token.False:
		p.advance()
		return &ast.BoolLiteral{Value: false, Line: tok.Line}
	case token.Identifier:
		if p.peek().Kind == token.OpenParen {
			return p.parseCall()
		}
		p.advance()
		return &ast.Identifier{Name: tok.Text, Line: tok.Line}
	case token.OpenParen:
		p.advance()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if p.expect(token.CloseParen).Kind != token.CloseParen {
			return nil
		}
		return expr
	}

	p.reportUnexpected(tok)
	return nil
}

// parseNumber converts a number literal. A literal directly after
// "name =" or "name op=" takes the declared width of name; anywhere else it
// is an int, or a double when it contains a '.'.
func (p *Parser) parseNumber() ast.Node {
	prev := p.lookAhead(-1)
	target := p.lookAhead(-2)
	tok := p.advance()

	t := types.TypeInt
	for i := 0; i < len(tok.Text); i++ {
		if tok.Text[i] == '.' {
			t = types.TypeDouble
			break
		}
	}

	if target.Kind == token.Identifier && isWidthAssignment(prev.Kind) {
		v, ok := p.scopes.Lookup(target.Text)
		if !ok {
			p.report(types.NewSyntaxError(fmt.Sprintf("Identifier '%s' not found.", target.Text)).AtLine(target.Line))
			return nil
		}
		if v.Type.IsNumeric() {
			t = v.Type
		}
	}

	value, err := types.ParseNumber(tok.Text, t)
	if err != nil {
		p.report(types.NewSyntaxError(types.AsError(err).Message).AtLine(tok.Line))
		return nil
	}
	return &ast.NumberLiteral{Text: tok.Text, Value: value, Line: tok.Line}
}

func isWidthAssignment(k token.Kind) bool {
	switch k {
	case token.Equal, token.PlusEqual, token.MinusEqual, token.StarEqual, token.SlashEqual:
		return true
	}
	return false
}

// parseCall parses name(arg, ...).
func (p *Parser) parseCall() ast.Node {
	name := p.advance()
	p.expect(token.OpenParen)

	call := &ast.FunctionCall{Name: name.Text, Line: name.Line}
	if !p.match(token.CloseParen) {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			if !p.accept(token.Comma) {
				break
			}
		}
	}
	if p.expect(token.CloseParen).Kind != token.CloseParen {
		return nil
	}
	return call
}
