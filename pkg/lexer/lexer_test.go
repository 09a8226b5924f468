package lexer

import "testing"

func TestNextTokenOperators(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! ( ) { } [ ] , ;`

	expected := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenAssign, TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe,
		TokenAnd, TokenOr, TokenNot,
		TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
		TokenLBracket, TokenRBracket, TokenComma, TokenSemicolon,
		TokenEOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: got type %d (%q), want %d", i, tok.Type, tok.Literal, want)
		}
	}
}

func TestNextTokenProgram(t *testing.T) {
	input := `int main() {
	// line comment
	int x = 0x2a; /* block
	comment */ return x;
}`

	expected := []struct {
		typ     TokenType
		literal string
	}{
		{TokenKwInt, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenKwInt, "int"},
		{TokenIdent, "x"},
		{TokenAssign, "="},
		{TokenInt, "0x2a"},
		{TokenSemicolon, ";"},
		{TokenReturn, "return"},
		{TokenIdent, "x"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Literal != want.literal {
			t.Fatalf("token %d: got (%d, %q), want (%d, %q)",
				i, tok.Type, tok.Literal, want.typ, want.literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	for kw, typ := range keywords {
		l := New(kw)
		tok := l.NextToken()
		if tok.Type != typ {
			t.Errorf("keyword %q: got type %d, want %d", kw, tok.Type, typ)
		}
	}
}

func TestLineTracking(t *testing.T) {
	l := New("a\nb\nc")
	if tok := l.NextToken(); tok.Line != 1 {
		t.Errorf("a on line %d, want 1", tok.Line)
	}
	if tok := l.NextToken(); tok.Line != 2 {
		t.Errorf("b on line %d, want 2", tok.Line)
	}
	if tok := l.NextToken(); tok.Line != 3 {
		t.Errorf("c on line %d, want 3", tok.Line)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"0", "0"},
		{"052", "052"},
		{"0x2A", "0x2A"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != TokenInt || tok.Literal != tt.want {
			t.Errorf("%q: got (%d, %q)", tt.input, tok.Type, tok.Literal)
		}
	}
}

func TestIllegal(t *testing.T) {
	l := New("&|")
	if tok := l.NextToken(); tok.Type != TokenIllegal {
		t.Errorf("single & should be illegal, got %d", tok.Type)
	}
}
