// Package token defines the tagged lexical tokens produced by the lexer.
package token

import (
	"fmt"

	"jellyfish/internal/interner"
	"jellyfish/internal/source"
)

// Kind tags the variant a Token carries.
type Kind int

const (
	// Punctuation
	LParen Kind = iota
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Dot
	Comma
	Colon
	Semicolon
	Arrow   // ->
	FatArrow // =>

	Plus
	Minus
	Star
	Slash
	Percent
	Caret // ^

	PlusEq
	MinusEq
	StarEq
	SlashEq
	PercentEq
	CaretEq

	Eq    // =
	EqEq  // ==
	BangEq
	Lt
	Gt
	LtEq
	GtEq

	AndAnd // &&
	OrOr   // ||
	Bang   // !

	// Keywords
	KwPrint
	KwIf
	KwElse
	KwWhile
	KwLet

	// Identifier / literals
	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral
	BoolLiteral

	// Lexical error, carrying a static message
	Error

	Eof
)

var names = map[Kind]string{
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Dot: ".", Comma: ",",
	Colon: ":", Semicolon: ";", Arrow: "->", FatArrow: "=>",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Caret: "^",
	PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=", PercentEq: "%=", CaretEq: "^=",
	Eq: "=", EqEq: "==", BangEq: "!=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!",
	KwPrint: "print", KwIf: "if", KwElse: "else", KwWhile: "while", KwLet: "let",
	Identifier: "identifier", IntLiteral: "integer literal", FloatLiteral: "float literal",
	StringLiteral: "string literal", BoolLiteral: "boolean literal",
	Error: "error", Eof: "end of input",
}

// String returns a human-readable name for k, used in diagnostics.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"print": KwPrint,
	"if":    KwIf,
	"else":  KwElse,
	"while": KwWhile,
	"let":   KwLet,
}

// LookupIdent classifies an already-scanned identifier lexeme as a keyword
// or a plain Identifier.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Identifier
}

// Token is a tagged value carrying a source span. Payload fields are only
// meaningful for the Kind that produces them.
type Token struct {
	Kind Kind
	Span source.Span

	Ident  interner.Symbol // Identifier
	Str    interner.Symbol // StringLiteral
	Int    uint64          // IntLiteral
	Float  uint64          // FloatLiteral, bit pattern of the float64
	Bool   bool            // BoolLiteral
	ErrMsg string          // Error
}

func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return fmt.Sprintf("Identifier(%s)", interner.Lookup(t.Ident))
	case StringLiteral:
		return fmt.Sprintf("String(%q)", interner.Lookup(t.Str))
	case IntLiteral:
		return fmt.Sprintf("Int(%d)", t.Int)
	case FloatLiteral:
		return fmt.Sprintf("Float(%d)", t.Float)
	case BoolLiteral:
		return fmt.Sprintf("Bool(%t)", t.Bool)
	case Error:
		return fmt.Sprintf("Error(%s)", t.ErrMsg)
	default:
		return t.Kind.String()
	}
}
