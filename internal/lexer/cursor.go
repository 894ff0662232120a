package lexer

import (
	"jellyfish/internal/source"
	"jellyfish/internal/token"
)

// TokenCursor wraps a Lexer with one-token lookahead, the interface the
// parser drives.
type TokenCursor struct {
	lex  *Lexer
	cur  token.Token
	prev token.Token
}

// NewCursor builds a TokenCursor over lex, priming the first lookahead token.
func NewCursor(lex *Lexer) *TokenCursor {
	c := &TokenCursor{lex: lex}
	c.cur = lex.NextToken()
	return c
}

// Peek returns the current lookahead token without consuming it.
func (c *TokenCursor) Peek() token.Token {
	return c.cur
}

// Next consumes and returns the current token, advancing the lookahead.
func (c *TokenCursor) Next() token.Token {
	t := c.cur
	c.prev = t
	c.cur = c.lex.NextToken()
	return t
}

// Matches reports whether the lookahead token has kind.
func (c *TokenCursor) Matches(kind token.Kind) bool {
	return c.cur.Kind == kind
}

// Eat consumes the lookahead token if it has kind, reporting whether it did.
func (c *TokenCursor) Eat(kind token.Kind) bool {
	if c.Matches(kind) {
		c.Next()
		return true
	}
	return false
}

// IgnoreWhile consumes tokens while predicate holds for the lookahead.
func (c *TokenCursor) IgnoreWhile(predicate func(token.Token) bool) {
	for predicate(c.cur) {
		c.Next()
	}
}

// Eof reports whether the lookahead token is Eof.
func (c *TokenCursor) Eof() bool {
	return c.cur.Kind == token.Eof
}

// PrevSpan returns the span of the most recently consumed token.
func (c *TokenCursor) PrevSpan() source.Span {
	return c.prev.Span
}
