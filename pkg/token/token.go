// Package token defines the lexical tokens of the jpp language together with
// their display names, fixed spellings and operator precedence tables.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int

const (
	// Literals
	Number     Kind = iota // 123, 4.5
	String                 // "text"
	Identifier             // name
	False                  // false
	True                   // true

	// Arithmetic
	Plus  // +
	Minus // -
	Star  // *
	Slash // /

	// Increment, decrement and compound assignment
	PlusPlus     // ++
	PlusPlusPlus // +++
	MinusMinus   // --
	PlusEqual    // +=
	MinusEqual   // -=
	StarEqual    // *=
	SlashEqual   // /=

	Equal // =
	Bang  // !

	// Comparison and logical
	EqualEqual // ==
	BangEqual  // !=
	AndAnd     // &&
	OrOr       // ||

	// Punctuation
	Comma      // ,
	OpenParen  // (
	CloseParen // )
	OpenBrace  // {
	CloseBrace // }
	Semicolon  // ;

	// Type keywords
	BoolType   // bool
	ShortType  // short
	IntType    // int
	LongType   // long
	FloatType  // float
	DoubleType // double

	// Control keywords
	Print  // print
	If     // if
	Return // return

	// Sentinels
	Invalid // unrecognized character
	EOF     // end of input
)

// Token is a classified lexeme. Pos is the byte offset of the first byte of
// Text in the source and Len its length in bytes. Line is 1-based.
type Token struct {
	Kind Kind
	Text string
	Pos  int
	Line int
	Len  int
}

// String returns a debug-friendly representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d:%d", t.Kind.Name(), t.Text, t.Line, t.Pos)
}

var names = map[Kind]string{
	Number:       "Number Token",
	String:       "String Token",
	Identifier:   "Identifier Token",
	False:        "False Token",
	True:         "True Token",
	Plus:         "Plus Token",
	Minus:        "Minus Token",
	Star:         "Star Token",
	Slash:        "Slash Token",
	PlusPlus:     "Plus Plus Token",
	PlusPlusPlus: "Triple Plus Token",
	MinusMinus:   "Minus Minus Token",
	PlusEqual:    "Plus Equal Token",
	MinusEqual:   "Minus Equal Token",
	StarEqual:    "Star Equal Token",
	SlashEqual:   "Slash Equal Token",
	Equal:        "Equal Token",
	Bang:         "Bang Token",
	EqualEqual:   "Equal Equal Token",
	BangEqual:    "Bang Equal Token",
	AndAnd:       "Ampersand Ampersand Token",
	OrOr:         "Pipe Pipe Token",
	Comma:        "Comma Token",
	OpenParen:    "Open Paren Token",
	CloseParen:   "Close Paren Token",
	OpenBrace:    "Open Curly Bracket Token",
	CloseBrace:   "Close Curly Bracket Token",
	Semicolon:    "Semicolon Token",
	BoolType:     "Bool Type",
	ShortType:    "Short Type",
	IntType:      "Int Type",
	LongType:     "Long Type",
	FloatType:    "Float Type",
	DoubleType:   "Double Type",
	Print:        "Print Keyword",
	If:           "If Keyword",
	Return:       "Return Keyword",
	Invalid:      "Bad Token",
	EOF:          "End Of File Token",
}

// Name returns the human-readable name used in diagnostics, e.g.
// "Semicolon Token".
func (k Kind) Name() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "Invalid Token"
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return k.Name()
}

var spellings = map[Kind]string{
	False:        "false",
	True:         "true",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	PlusPlus:     "++",
	PlusPlusPlus: "+++",
	MinusMinus:   "--",
	PlusEqual:    "+=",
	MinusEqual:   "-=",
	StarEqual:    "*=",
	SlashEqual:   "/=",
	Equal:        "=",
	Bang:         "!",
	EqualEqual:   "==",
	BangEqual:    "!=",
	AndAnd:       "&&",
	OrOr:         "||",
	Comma:        ",",
	OpenParen:    "(",
	CloseParen:   ")",
	OpenBrace:    "{",
	CloseBrace:   "}",
	Semicolon:    ";",
	BoolType:     "bool",
	ShortType:    "short",
	IntType:      "int",
	LongType:     "long",
	FloatType:    "float",
	DoubleType:   "double",
	Print:        "print",
	If:           "if",
	Return:       "return",
}

// Spelling returns the fixed source spelling of k, or "" for kinds whose
// text varies (literals, identifiers, sentinels).
func (k Kind) Spelling() string {
	return spellings[k]
}

var keywords = map[string]Kind{
	"print":  Print,
	"if":     If,
	"return": Return,
	"true":   True,
	"false":  False,
	"bool":   BoolType,
	"short":  ShortType,
	"int":    IntType,
	"long":   LongType,
	"float":  FloatType,
	"double": DoubleType,
}

// Lookup maps a complete identifier run to its keyword kind, or Identifier.
// Matching is exact and case-sensitive.
func Lookup(word string) Kind {
	if k, ok := keywords[word]; ok {
		return k
	}
	return Identifier
}

// IsType reports whether k is one of the type keywords.
func (k Kind) IsType() bool {
	return k >= BoolType && k <= DoubleType
}

// IsAssignment reports whether k is = or one of the compound assignment
// operators (including ++, +++ and --).
func (k Kind) IsAssignment() bool {
	return k == Equal || (k >= PlusPlus && k <= SlashEqual)
}
