package lexer

import (
	"testing"

	"jellyfish/internal/interner"
	"jellyfish/internal/source"
	"jellyfish/internal/token"
)

func tokenize(t *testing.T, input string) []token.Token {
	t.Helper()
	src := source.New("test.jf", input)
	l := New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.Eof {
			break
		}
	}
	return toks
}

func TestNextTokenPunctuationAndKeywords(t *testing.T) {
	input := `let x = 1; if x { print(x); } else { while x { x = x - 1; } }`

	expected := []token.Kind{
		token.KwLet, token.Identifier, token.Eq, token.IntLiteral, token.Semicolon,
		token.KwIf, token.Identifier, token.LBrace,
		token.KwPrint, token.LParen, token.Identifier, token.RParen, token.Semicolon,
		token.RBrace, token.KwElse, token.LBrace,
		token.KwWhile, token.Identifier, token.LBrace,
		token.Identifier, token.Eq, token.Identifier, token.Minus, token.IntLiteral, token.Semicolon,
		token.RBrace, token.RBrace,
		token.Eof,
	}

	toks := tokenize(t, input)
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(expected), toks)
	}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestMultiCharPunctuation(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"->", token.Arrow},
		{"=>", token.FatArrow},
		{"+=", token.PlusEq},
		{"-=", token.MinusEq},
		{"*=", token.StarEq},
		{"/=", token.SlashEq},
		{"%=", token.PercentEq},
		{"^=", token.CaretEq},
		{"==", token.EqEq},
		{"!=", token.BangEq},
		{"<=", token.LtEq},
		{">=", token.GtEq},
		{"&&", token.AndAnd},
		{"||", token.OrOr},
		{"!", token.Bang},
	}
	for _, tt := range tests {
		toks := tokenize(t, tt.input)
		if toks[0].Kind != tt.kind {
			t.Errorf("input %q: got %s, want %s", tt.input, toks[0].Kind, tt.kind)
		}
	}
}

func TestRadixIntegerLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"1_000", 1000},
	}
	for _, tt := range tests {
		toks := tokenize(t, tt.input)
		if toks[0].Kind != token.IntLiteral {
			t.Fatalf("input %q: got kind %s, want IntLiteral", tt.input, toks[0].Kind)
		}
		if toks[0].Int != tt.want {
			t.Errorf("input %q: got %d, want %d", tt.input, toks[0].Int, tt.want)
		}
	}
}

func TestLeadingZeroIsLexicalError(t *testing.T) {
	toks := tokenize(t, "007")
	if toks[0].Kind != token.Error {
		t.Fatalf("got kind %s, want Error", toks[0].Kind)
	}
	if toks[0].ErrMsg != "leading zeroes" {
		t.Errorf("got message %q", toks[0].ErrMsg)
	}
	// Must still be fully consumed: the next token is Eof, not a partial re-lex.
	if toks[1].Kind != token.Eof {
		t.Errorf("expected the whole literal to be consumed, got %s next", toks[1].Kind)
	}
}

func TestEmptyRadixLiteralIsError(t *testing.T) {
	toks := tokenize(t, "0x")
	if toks[0].Kind != token.Error || toks[0].ErrMsg != "empty integer literal" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestRadixFractionIsError(t *testing.T) {
	toks := tokenize(t, "0x1F.5")
	if toks[0].Kind != token.Error || toks[0].ErrMsg != "only decimal numbers may have a fractional part" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestFloatLiteral(t *testing.T) {
	toks := tokenize(t, "3.14")
	if toks[0].Kind != token.FloatLiteral {
		t.Fatalf("got kind %s", toks[0].Kind)
	}
}

func TestFloatExponent(t *testing.T) {
	toks := tokenize(t, "1e10")
	if toks[0].Kind != token.FloatLiteral {
		t.Fatalf("got kind %s", toks[0].Kind)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := tokenize(t, `"hi\n\t\x"`)
	if toks[0].Kind != token.StringLiteral {
		t.Fatalf("got kind %s", toks[0].Kind)
	}
	got := interner.Lookup(toks[0].Str)
	want := "hi\n\tx"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := tokenize(t, `"abc`)
	if toks[0].Kind != token.Error || toks[0].ErrMsg != "Unterminated string." {
		t.Fatalf("got %v", toks[0])
	}
}

func TestLineComment(t *testing.T) {
	toks := tokenize(t, "1 // comment\n2")
	if toks[0].Kind != token.IntLiteral || toks[0].Int != 1 {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Kind != token.IntLiteral || toks[1].Int != 2 {
		t.Fatalf("got %v", toks[1])
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	toks := tokenize(t, "@")
	if toks[0].Kind != token.Error || toks[0].ErrMsg != "Unexpected character." {
		t.Fatalf("got %v", toks[0])
	}
}

func TestEofRepeats(t *testing.T) {
	l := New(source.New("t.jf", ""))
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Kind != token.Eof {
			t.Fatalf("iteration %d: got %s, want Eof", i, tok.Kind)
		}
	}
}
