// Package parser builds a jpp syntax tree from a token stream.
//
// The parser tracks declarations in its own scope stack while it parses so
// that a number literal assigned to a variable can be built at the width the
// variable was declared with. Errors are collected rather than returned on
// first failure; the top-level loop stops once any error has been recorded.
package parser

import (
	"fmt"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/lexer"
	"github.com/lemonberrylabs/jpp/pkg/scope"
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Parser is a recursive descent parser over a token slice.
type Parser struct {
	tokens  []token.Token
	pos     int
	scopes  *scope.Stack
	program *ast.Program
	errors  types.ErrorList
}

// Parse tokenizes and parses a complete program. The returned error is a
// types.ErrorList when any syntax error was found; the program holds
// whatever was parsed up to that point.
func Parse(src string) (*ast.Program, error) {
	return New(lexer.Tokenize(src)).Parse()
}

// New creates a parser over tokens. The slice must end with an EOF or
// Invalid sentinel, as lexer.Tokenize guarantees.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 {
		tokens = []token.Token{{Kind: token.EOF, Line: 1}}
	}
	return &Parser{
		tokens:  tokens,
		scopes:  scope.NewStack(),
		program: ast.NewProgram(),
	}
}

// Parse parses statements until the end of the stream or the first error.
func (p *Parser) Parse() (*ast.Program, error) {
	for !p.atEnd() && len(p.errors) == 0 {
		start := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			p.program.Statements = append(p.program.Statements, stmt)
		} else if p.pos == start && len(p.errors) == 0 {
			p.reportUnexpected(p.current())
		}
	}
	if len(p.errors) == 0 && p.current().Kind == token.Invalid {
		p.reportUnexpected(p.current())
	}
	return p.program, p.errors.Err()
}

// Errors returns the errors collected so far.
func (p *Parser) Errors() types.ErrorList {
	return p.errors
}

// current returns the current token.
func (p *Parser) current() token.Token {
	return p.lookAhead(0)
}

// peek returns the next token without consuming it.
func (p *Parser) peek() token.Token {
	return p.lookAhead(1)
}

// lookAhead returns the token offset positions from the cursor. Past the end
// it returns the final sentinel; before the start it returns an Invalid
// placeholder.
func (p *Parser) lookAhead(offset int) token.Token {
	i := p.pos + offset
	if i < 0 {
		return token.Token{Kind: token.Invalid, Pos: -1}
	}
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// advance consumes the current token and returns it. The final sentinel is
// never consumed.
func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// back moves the cursor one token backwards.
func (p *Parser) back() {
	if p.pos > 0 {
		p.pos--
	}
}

func (p *Parser) match(k token.Kind) bool {
	return p.current().Kind == k
}

// accept consumes the current token if it has kind k.
func (p *Parser) accept(k token.Kind) bool {
	if p.match(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of kind k. On mismatch it records an error and
// returns an Invalid placeholder without consuming anything.
func (p *Parser) expect(k token.Kind) token.Token {
	if p.match(k) {
		return p.advance()
	}
	p.report(types.NewSyntaxError("Expected " + k.Name()))
	return token.Token{Kind: token.Invalid, Pos: -1, Line: p.current().Line}
}

func (p *Parser) atEnd() bool {
	k := p.current().Kind
	return k == token.EOF || k == token.Invalid
}

func (p *Parser) report(err *types.Error) {
	if err.Line == 0 {
		err.Line = p.current().Line
	}
	p.errors = append(p.errors, err)
}

func (p *Parser) reportUnexpected(tok token.Token) {
	if tok.Kind == token.Invalid && tok.Pos >= 0 {
		p.report(types.NewSyntaxError(fmt.Sprintf("Invalid character '%s' at line %d", tok.Text, tok.Line)).AtLine(tok.Line))
		return
	}
	p.report(types.NewSyntaxError("Unexpected " + tok.Kind.Name()).AtLine(tok.Line))
}

// parseStatement dispatches on the current token. It returns nil for a
// function declaration, which is recorded in the function table instead of
// the statement list, and for statements abandoned after an error.
func (p *Parser) parseStatement() ast.Node {
	tok := p.current()
	switch {
	case tok.Kind == token.Print:
		return p.parsePrint()
	case tok.Kind.IsType():
		return p.parseDeclaration()
	case tok.Kind == token.If:
		return p.parseIf()
	case tok.Kind == token.OpenBrace:
		if block := p.parseBlock(nil); block != nil {
			return block
		}
		return nil
	case tok.Kind == token.Return:
		p.reportUnexpected(tok)
		return nil
	case tok.Kind == token.Identifier && p.peek().Kind != token.OpenParen:
		return p.parseAssignment()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parsePrint() ast.Node {
	tok := p.advance()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	p.expect(token.Semicolon)
	return &ast.PrintStatement{Expr: expr, Line: tok.Line}
}

func (p *Parser) parseIf() ast.Node {
	tok := p.expect(token.If)
	p.expect(token.OpenParen)
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	p.expect(token.CloseParen)
	body := p.parseBlock(nil)
	if body == nil {
		return nil
	}
	return &ast.IfStatement{Cond: cond, Body: body, Line: tok.Line}
}

// parseBlock parses { statements }. params are declared in the block's parser
// scope before the body is read.
func (p *Parser) parseBlock(params []ast.Param) *ast.Block {
	open := p.expect(token.OpenBrace)
	if open.Kind != token.OpenBrace {
		return nil
	}

	vars := make([]scope.Variable, len(params))
	for i, param := range params {
		vars[i] = scope.Variable{Name: param.Name, Type: param.Type, Value: types.Null}
	}
	p.scopes.Push(vars...)
	defer p.scopes.Pop()

	block := &ast.Block{Line: open.Line}
	for !p.match(token.CloseBrace) && !p.atEnd() && len(p.errors) == 0 {
		start := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else if p.pos == start && len(p.errors) == 0 {
			p.reportUnexpected(p.current())
		}
	}
	if len(p.errors) > 0 {
		return nil
	}
	if p.match(token.Invalid) {
		p.reportUnexpected(p.current())
		return nil
	}
	p.expect(token.CloseBrace)
	return block
}

// parseDeclaration parses "type name ..." into either a variable
// declaration or, when the name is followed by '(', a function declaration.
func (p *Parser) parseDeclaration() ast.Node {
	typTok := p.advance()
	typ, _ := token.DeclaredType(typTok.Kind)

	name := p.expect(token.Identifier)
	if name.Kind != token.Identifier {
		return nil
	}

	if p.match(token.OpenParen) {
		p.parseFunction(typ, name)
		return nil
	}

	if err := p.scopes.Declare(scope.Variable{Name: name.Text, Type: typ, Value: types.Null}); err != nil {
		p.report(types.AsError(err).AtLine(name.Line))
		return nil
	}

	decl := &ast.VarDeclaration{Type: typ, Name: name.Text, Line: typTok.Line}
	if p.accept(token.Equal) {
		decl.Init = p.parseExpression()
		if decl.Init == nil {
			return nil
		}
	}
	p.expect(token.Semicolon)
	return decl
}

// parseFunction parses the parameter list and body of a function whose
// return type and name were already consumed.
func (p *Parser) parseFunction(ret types.ValueType, name token.Token) {
	p.expect(token.OpenParen)
	var params []ast.Param
	if !p.match(token.CloseParen) {
		params = p.parseParams()
		if params == nil {
			return
		}
	}
	p.expect(token.CloseParen)
	if len(p.errors) > 0 {
		return
	}

	body := p.parseBlock(params)
	if body == nil {
		return
	}
	fn := &ast.FunctionDef{Name: name.Text, ReturnType: ret, Params: params, Body: body, Line: name.Line}
	if err := p.program.Functions.Define(fn); err != nil {
		p.report(types.AsError(err).AtLine(name.Line))
	}
}

// parseParams parses "type name {, type name}".
func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	for {
		tok := p.current()
		typ, ok := token.DeclaredType(tok.Kind)
		if !ok {
			if tok.Kind == token.Identifier {
				p.report(types.NewSyntaxError(fmt.Sprintf("Data type for identifier: %s not found.", tok.Text)))
			} else {
				p.report(types.NewSyntaxError("Expected parameter type, got " + tok.Kind.Name()))
			}
			return nil
		}
		p.advance()
		name := p.expect(token.Identifier)
		if name.Kind != token.Identifier {
			return nil
		}
		for _, prev := range params {
			if prev.Name == name.Text {
				p.report(types.NewRedeclarationError(fmt.Sprintf("Identifier '%s' already declared.", name.Text)).AtLine(name.Line))
				return nil
			}
		}
		params = append(params, ast.Param{Type: typ, Name: name.Text})
		if !p.accept(token.Comma) {
			return params
		}
	}
}

// parseAssignment parses "name op expr ;" where op is = or a compound
// operator, desugaring compound forms into name = name OP rhs. Without an
// assignment operator it backs up and parses an expression statement.
func (p *Parser) parseAssignment() ast.Node {
	name := p.advance()
	if !p.current().Kind.IsAssignment() {
		p.back()
		return p.parseExpressionStatement()
	}
	opTok := p.advance()

	var rhs ast.Node
	switch opTok.Kind {
	case token.PlusPlus, token.MinusMinus:
		rhs = p.synthesizedLiteral(name, "1")
	case token.PlusPlusPlus:
		rhs = p.synthesizedLiteral(name, "2")
	default:
		rhs = p.parseExpression()
	}
	if rhs == nil {
		return nil
	}

	value := rhs
	if op, ok := token.CompoundOperator(opTok.Kind); ok {
		value = &ast.BinaryOp{
			Op:    op,
			Left:  &ast.Identifier{Name: name.Text, Line: name.Line},
			Right: rhs,
			Line:  opTok.Line,
		}
	}
	p.expect(token.Semicolon)
	return &ast.VarAssignment{Name: name.Text, Value: value, Line: name.Line}
}

// synthesizedLiteral builds the implicit 1 or 2 of ++, +++ and -- at the
// declared width of target.
func (p *Parser) synthesizedLiteral(target token.Token, text string) ast.Node {
	v, ok := p.scopes.Lookup(target.Text)
	if !ok {
		p.report(types.NewSyntaxError(fmt.Sprintf("Identifier '%s' not found.", target.Text)).AtLine(target.Line))
		return nil
	}
	t := v.Type
	if !t.IsNumeric() {
		t = types.TypeInt
	}
	value, err := types.ParseNumber(text, t)
	if err != nil {
		p.report(types.NewSyntaxError(err.Error()).AtLine(target.Line))
		return nil
	}
	return &ast.NumberLiteral{Text: text, Value: value, Line: target.Line}
}

// parseExpressionStatement parses a bare expression with an optional
// trailing semicolon.
func (p *Parser) parseExpressionStatement() ast.Node {
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	p.accept(token.Semicolon)
	return expr
}
