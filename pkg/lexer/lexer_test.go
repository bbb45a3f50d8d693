package lexer

import (
	"testing"

	"github.com/lemonberrylabs/jpp/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func assertKinds(t *testing.T, input string, want ...token.Kind) []token.Token {
	t.Helper()
	toks := Tokenize(input)
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("Tokenize(%q): got %v, want %v", input, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize(%q)[%d]: got %s, want %s", input, i, got[i], want[i])
		}
	}
	return toks
}

func TestEmptyInput(t *testing.T) {
	toks := assertKinds(t, "", token.EOF)
	if toks[0].Pos != 0 || toks[0].Len != 0 {
		t.Errorf("EOF at pos %d len %d, want 0/0", toks[0].Pos, toks[0].Len)
	}
}

func TestEOFPosition(t *testing.T) {
	input := "int x = 1;  "
	toks := Tokenize(input)
	eof := toks[len(toks)-1]
	if eof.Kind != token.EOF {
		t.Fatalf("last token is %s", eof.Kind)
	}
	if eof.Pos != len(input) || eof.Len != 0 {
		t.Errorf("EOF at pos %d len %d, want %d/0", eof.Pos, eof.Len, len(input))
	}
}

func TestOperatorSpellings(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"+", token.Plus},
		{"-", token.Minus},
		{"*", token.Star},
		{"/", token.Slash},
		{"++", token.PlusPlus},
		{"+++", token.PlusPlusPlus},
		{"--", token.MinusMinus},
		{"+=", token.PlusEqual},
		{"-=", token.MinusEqual},
		{"*=", token.StarEqual},
		{"/=", token.SlashEqual},
		{"=", token.Equal},
		{"!", token.Bang},
		{"==", token.EqualEqual},
		{"!=", token.BangEqual},
		{"&&", token.AndAnd},
		{"||", token.OrOr},
		{",", token.Comma},
		{"(", token.OpenParen},
		{")", token.CloseParen},
		{"{", token.OpenBrace},
		{"}", token.CloseBrace},
		{";", token.Semicolon},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			// Leading padding checks that Pos is the start offset.
			toks := assertKinds(t, "  "+tt.input, tt.kind, token.EOF)
			if toks[0].Pos != 2 {
				t.Errorf("pos = %d, want 2", toks[0].Pos)
			}
			if toks[0].Len != len(tt.input) {
				t.Errorf("len = %d, want %d", toks[0].Len, len(tt.input))
			}
			if toks[0].Text != tt.input {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.input)
			}
			if tt.kind.Spelling() != tt.input {
				t.Errorf("Spelling() = %q, want %q", tt.kind.Spelling(), tt.input)
			}
		})
	}
}

func TestMaximalMunch(t *testing.T) {
	assertKinds(t, "++++", token.PlusPlusPlus, token.Plus, token.EOF)
	assertKinds(t, "+++++", token.PlusPlusPlus, token.PlusPlus, token.EOF)
	assertKinds(t, "a+++b", token.Identifier, token.PlusPlusPlus, token.Identifier, token.EOF)
	assertKinds(t, "a+ +b", token.Identifier, token.Plus, token.Plus, token.Identifier, token.EOF)
	assertKinds(t, "===", token.EqualEqual, token.Equal, token.EOF)
	assertKinds(t, "!==", token.BangEqual, token.Equal, token.EOF)
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"print", token.Print},
		{"if", token.If},
		{"return", token.Return},
		{"true", token.True},
		{"false", token.False},
		{"bool", token.BoolType},
		{"short", token.ShortType},
		{"int", token.IntType},
		{"long", token.LongType},
		{"float", token.FloatType},
		{"double", token.DoubleType},
		{"printifreturn", token.Identifier},
		{"print1", token.Identifier},
		{"Print", token.Identifier},
		{"_int", token.Identifier},
		{"x_2y", token.Identifier},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := assertKinds(t, tt.input, tt.kind, token.EOF)
			if toks[0].Text != tt.input {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.input)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		text  []string
	}{
		{"42", []string{"42"}},
		{"3.14", []string{"3.14"}},
		{"007", []string{"007"}},
		{"1.", []string{"1."}},
		{"1.;", []string{"1."}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := Tokenize(tt.input)
			var got []string
			for _, tok := range toks {
				if tok.Kind == token.Number {
					got = append(got, tok.Text)
				}
			}
			if len(got) != len(tt.text) || got[0] != tt.text[0] {
				t.Errorf("numbers = %v, want %v", got, tt.text)
			}
		})
	}

	assertKinds(t, "print 1.;", token.Print, token.Number, token.Semicolon, token.EOF)
	assertKinds(t, "1..", token.Number, token.Invalid)
}

func TestStrings(t *testing.T) {
	toks := assertKinds(t, `print "hi there";`, token.Print, token.String, token.Semicolon, token.EOF)
	s := toks[1]
	if s.Text != "hi there" {
		t.Errorf("text = %q", s.Text)
	}
	if s.Pos != 7 || s.Len != 8 {
		t.Errorf("pos/len = %d/%d, want 7/8", s.Pos, s.Len)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := assertKinds(t, `"abc`, token.String, token.EOF)
	if toks[0].Text != "abc" {
		t.Errorf("text = %q, want abc", toks[0].Text)
	}
}

func TestComments(t *testing.T) {
	assertKinds(t, "/* a */ x /* b */", token.Identifier, token.EOF)
	assertKinds(t, "/**/ /* */x", token.Identifier, token.EOF)
	assertKinds(t, "x /* never closed", token.Identifier, token.EOF)
	assertKinds(t, "a /= b", token.Identifier, token.SlashEqual, token.Identifier, token.EOF)
}

func TestInvalidCharacterIsFinal(t *testing.T) {
	tests := []string{"x @ y", "a & b", "a | b", "#"}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			toks := Tokenize(input)
			last := toks[len(toks)-1]
			if last.Kind != token.Invalid {
				t.Fatalf("last token %s, want invalid", last.Kind)
			}
			if last.Len != 1 {
				t.Errorf("len = %d, want 1", last.Len)
			}
			for _, tok := range toks[:len(toks)-1] {
				if tok.Kind == token.Invalid || tok.Kind == token.EOF {
					t.Errorf("sentinel %s before end", tok.Kind)
				}
			}
		})
	}
}

func TestLineNumbers(t *testing.T) {
	input := "int a;\n/* one\ntwo */\nprint \"x\ny\";\nb"
	toks := Tokenize(input)
	want := map[string]int{"int": 1, "print": 4, "x\ny": 4, "b": 6}
	for _, tok := range toks {
		if line, ok := want[tok.Text]; ok && tok.Line != line {
			t.Errorf("%q on line %d, want %d", tok.Text, tok.Line, line)
		}
	}
}

func TestProgram(t *testing.T) {
	assertKinds(t, "int f(int a, int b){print a + b;}f(2, 52);",
		token.IntType, token.Identifier, token.OpenParen,
		token.IntType, token.Identifier, token.Comma,
		token.IntType, token.Identifier, token.CloseParen,
		token.OpenBrace, token.Print, token.Identifier, token.Plus, token.Identifier, token.Semicolon,
		token.CloseBrace,
		token.Identifier, token.OpenParen, token.Number, token.Comma, token.Number, token.CloseParen,
		token.Semicolon, token.EOF,
	)
}
