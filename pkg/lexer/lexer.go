// Package lexer turns jpp source text into a token stream.
package lexer

import (
	"github.com/lemonberrylabs/jpp/pkg/token"
)

// Lexer tokenizes a jpp program.
type Lexer struct {
	input  string
	pos    int
	line   int
	tokens []token.Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) []token.Token {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input. The returned stream always ends with
// either an EOF token or, when an unrecognized character was met, the
// Invalid token for that character. Nothing follows either sentinel.
func (l *Lexer) Tokenize() []token.Token {
	for {
		tok := l.next()
		l.tokens = append(l.tokens, tok)
		if tok.Kind == token.EOF || tok.Kind == token.Invalid {
			break
		}
	}
	return l.tokens
}

// next returns the next token from the input, skipping whitespace and
// block comments.
func (l *Lexer) next() token.Token {
	for {
		l.skipWhitespace()
		if !l.hasPrefix("/*") {
			break
		}
		l.skipComment()
	}

	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Pos: l.pos, Line: l.line}
	}

	ch := l.input[l.pos]

	if ch == '"' {
		return l.readString()
	}

	if isDigit(ch) {
		return l.readNumber()
	}

	if isIdentStart(ch) {
		return l.readIdentifier()
	}

	// Three-character operators
	if l.hasPrefix("+++") {
		return l.emit(token.PlusPlusPlus, 3)
	}

	// Two-character operators
	if l.pos+1 < len(l.input) {
		switch l.input[l.pos : l.pos+2] {
		case "++":
			return l.emit(token.PlusPlus, 2)
		case "--":
			return l.emit(token.MinusMinus, 2)
		case "+=":
			return l.emit(token.PlusEqual, 2)
		case "-=":
			return l.emit(token.MinusEqual, 2)
		case "*=":
			return l.emit(token.StarEqual, 2)
		case "/=":
			return l.emit(token.SlashEqual, 2)
		case "==":
			return l.emit(token.EqualEqual, 2)
		case "!=":
			return l.emit(token.BangEqual, 2)
		case "&&":
			return l.emit(token.AndAnd, 2)
		case "||":
			return l.emit(token.OrOr, 2)
		}
	}

	// Single-character operators
	switch ch {
	case '+':
		return l.emit(token.Plus, 1)
	case '-':
		return l.emit(token.Minus, 1)
	case '*':
		return l.emit(token.Star, 1)
	case '/':
		return l.emit(token.Slash, 1)
	case '=':
		return l.emit(token.Equal, 1)
	case '!':
		return l.emit(token.Bang, 1)
	case ',':
		return l.emit(token.Comma, 1)
	case '(':
		return l.emit(token.OpenParen, 1)
	case ')':
		return l.emit(token.CloseParen, 1)
	case '{':
		return l.emit(token.OpenBrace, 1)
	case '}':
		return l.emit(token.CloseBrace, 1)
	case ';':
		return l.emit(token.Semicolon, 1)
	}

	return l.emit(token.Invalid, 1)
}

// emit builds a token of kind k from the next n bytes and advances past them.
func (l *Lexer) emit(k token.Kind, n int) token.Token {
	tok := token.Token{
		Kind: k,
		Text: l.input[l.pos : l.pos+n],
		Pos:  l.pos,
		Line: l.line,
		Len:  n,
	}
	l.pos += n
	return tok
}

// readString reads a double-quoted string literal. There are no escapes.
// An unterminated literal runs to the end of the input.
func (l *Lexer) readString() token.Token {
	line := l.line
	l.pos++ // skip opening quote
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		if l.input[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	text := l.input[start:l.pos]
	if l.pos < len(l.input) {
		l.pos++ // skip closing quote
	}
	return token.Token{Kind: token.String, Text: text, Pos: start, Line: line, Len: len(text)}
}

// readNumber reads a run of digits with an optional fractional part, which
// may be empty ("1." is a number). The text is kept verbatim; conversion
// happens in the parser.
func (l *Lexer) readNumber() token.Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	text := l.input[start:l.pos]
	return token.Token{Kind: token.Number, Text: text, Pos: start, Line: l.line, Len: len(text)}
}

// readIdentifier reads an identifier or keyword. Only the complete run is
// matched against the keyword table.
func (l *Lexer) readIdentifier() token.Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]
	return token.Token{Kind: token.Lookup(word), Text: word, Pos: start, Line: l.line, Len: len(word)}
}

// skipComment skips a /* ... */ block comment. An unterminated comment
// consumes the rest of the input.
func (l *Lexer) skipComment() {
	l.pos += 2
	for l.pos < len(l.input) {
		if l.hasPrefix("*/") {
			l.pos += 2
			return
		}
		if l.input[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\n':
			l.line++
		case ' ', '\t', '\r', '\v', '\f':
		default:
			return
		}
		l.pos++
	}
}

func (l *Lexer) hasPrefix(s string) bool {
	return len(l.input)-l.pos >= len(s) && l.input[l.pos:l.pos+len(s)] == s
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
