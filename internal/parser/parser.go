// Package parser implements the recursive-descent statement parser and
// Pratt-style expression parser for Jellyfish.
package parser

import (
	"jellyfish/internal/ast"
	"jellyfish/internal/diagnostic"
	"jellyfish/internal/interner"
	"jellyfish/internal/lexer"
	"jellyfish/internal/source"
	"jellyfish/internal/token"
	"jellyfish/internal/value"
)

// Precedence levels, low to high. Assignment is
// lowest so a whole expression including `=` parses as one unit; Negative
// is highest so unary `-` grabs only a single primary/prefix-level operand.
const (
	precNone = iota
	precAssignment
	precOr
	precAnd
	precNot
	precComparison
	precTerm
	precFactor
	precExponent
	precNegative
)

// Parser drives a TokenCursor with one token of lookahead, building an AST
// and reporting diagnostics as it recovers from local syntax errors.
type Parser struct {
	cursor *lexer.TokenCursor
	diags  *diagnostic.Collector
}

// New builds a Parser over cursor, reporting into diags.
func New(cursor *lexer.TokenCursor, diags *diagnostic.Collector) *Parser {
	return &Parser{cursor: cursor, diags: diags}
}

// ParseModule parses a whole source file into a Module.
func (p *Parser) ParseModule() *ast.Module {
	var stmts []ast.Statement
	for !p.cursor.Eof() {
		stmts = append(stmts, p.parseStatement())
	}
	return &ast.Module{Statements: stmts}
}

// ---- recovery helpers ----

// recoverTo advances the cursor until kind is next, without consuming it.
func (p *Parser) recoverTo(kind token.Kind) {
	for !p.cursor.Matches(kind) && !p.cursor.Eof() {
		p.cursor.Next()
	}
}

// recoverPast advances the cursor until kind is next, then consumes it too.
func (p *Parser) recoverPast(kind token.Kind) {
	p.recoverTo(kind)
	p.cursor.Eat(kind)
}

// recoverToAndConsume advances until kind is next and consumes it if found,
// otherwise returns the (non-matching) lookahead token for span-building.
func (p *Parser) recoverToAndConsume(kind token.Kind) token.Token {
	p.recoverTo(kind)
	if p.cursor.Matches(kind) {
		return p.cursor.Next()
	}
	return p.cursor.Peek()
}

func (p *Parser) report(title string, span source.Span) {
	p.diags.Report(diagnostic.New(title).WithLabel("", span))
}

func (p *Parser) dummyExpr(span source.Span) ast.Expr {
	return ast.NewDummyExpr(span)
}

func (p *Parser) dummyStatement(span source.Span) ast.Statement {
	return ast.NewExprStmt(ast.NewDummyExpr(span), span)
}

// expect reports a diagnostic naming what was expected if the lookahead
// isn't kind, and otherwise consumes it. It always returns whatever token
// ends up consumed (or the lookahead, on failure) for span-building.
func (p *Parser) expect(kind token.Kind, what string) (token.Token, bool) {
	if p.cursor.Matches(kind) {
		return p.cursor.Next(), true
	}
	got := p.cursor.Peek()
	p.report("expected "+what+", found "+got.Kind.String(), got.Span)
	return got, false
}

// ---- statements ----

func (p *Parser) parseStatement() ast.Statement {
	switch p.cursor.Peek().Kind {
	case token.KwLet:
		return p.parseVarDecl()
	case token.KwIf:
		return p.parseIfStatement()
	case token.KwWhile:
		return p.parseWhileLoop()
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseVarDecl() ast.Statement {
	letTok := p.cursor.Next() // 'let'

	identTok, ok := p.expect(token.Identifier, "identifier")
	if !ok {
		p.recoverPast(token.Semicolon)
		return p.dummyStatement(letTok.Span.Join(identTok.Span))
	}

	if _, ok := p.expect(token.Eq, "'='"); !ok {
		p.recoverPast(token.Semicolon)
		return p.dummyStatement(letTok.Span.Join(identTok.Span))
	}

	init := p.parseExpr()

	endTok, ok := p.expect(token.Semicolon, "';'")
	if !ok {
		p.recoverPast(token.Semicolon)
	}

	span := letTok.Span.Join(endTok.Span)
	return ast.NewVarDecl(identTok.Ident, identTok.Span, init, span)
}

func (p *Parser) parseIfStatement() ast.Statement {
	return p.parseIf()
}

func (p *Parser) parseIf() *ast.IfStatement {
	ifTok := p.cursor.Next() // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()

	var elseIf *ast.IfStatement
	var elseBlock *ast.Block
	end := then.Span()

	if p.cursor.Eat(token.KwElse) {
		if p.cursor.Matches(token.KwIf) {
			elseIf = p.parseIf()
			end = elseIf.Span()
		} else {
			elseBlock = p.parseBlock()
			end = elseBlock.Span()
		}
	}

	stmt := ast.NewIfStatement(cond, then, ifTok.Span.Join(end))
	stmt.ElseIf = elseIf
	stmt.ElseBlock = elseBlock
	return stmt
}

func (p *Parser) parseWhileLoop() ast.Statement {
	whileTok := p.cursor.Next() // 'while'
	cond := p.parseExpr()
	body := p.parseBlock()
	return ast.NewWhileLoop(cond, body, whileTok.Span.Join(body.Span()))
}

func (p *Parser) parseBlock() *ast.Block {
	startTok := p.cursor.Peek()
	if !p.cursor.Eat(token.LBrace) {
		p.report("expected '{', found "+startTok.Kind.String(), startTok.Span)
		return ast.NewBlock(nil, startTok.Span)
	}

	var stmts []ast.Statement
	for !p.cursor.Matches(token.RBrace) && !p.cursor.Eof() {
		stmts = append(stmts, p.parseStatement())
	}

	endTok := p.cursor.Peek()
	if !p.cursor.Eat(token.RBrace) {
		p.report("expected '}', found "+endTok.Kind.String(), endTok.Span)
		p.recoverPast(token.RBrace)
	}

	return ast.NewBlock(stmts, startTok.Span.Join(endTok.Span))
}

func (p *Parser) parseExprStatement() ast.Statement {
	startSpan := p.cursor.Peek().Span
	expr := p.parseExpr()

	if _, direct := expr.(*ast.DummyExpr); direct {
		p.recoverPast(token.Semicolon)
		return ast.NewExprStmt(expr, startSpan.Join(expr.Span()))
	}

	endTok, ok := p.expect(token.Semicolon, "';'")
	if !ok {
		p.recoverPast(token.Semicolon)
	}
	return ast.NewExprStmt(expr, startSpan.Join(endTok.Span))
}

// ---- expressions: Pratt precedence climbing ----

func (p *Parser) parseExpr() ast.Expr {
	return p.parsePrec(precAssignment)
}

type infixInfo struct {
	prec       int
	rightAssoc bool
}

func infixOf(kind token.Kind) (infixInfo, bool) {
	switch kind {
	case token.Eq:
		return infixInfo{precAssignment, true}, true
	case token.OrOr:
		return infixInfo{precOr, false}, true
	case token.AndAnd:
		return infixInfo{precAnd, false}, true
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq:
		return infixInfo{precComparison, false}, true
	case token.Plus, token.Minus:
		return infixInfo{precTerm, false}, true
	case token.Star, token.Slash, token.Percent:
		return infixInfo{precFactor, false}, true
	case token.Caret:
		return infixInfo{precExponent, true}, true
	default:
		return infixInfo{}, false
	}
}

func (p *Parser) parsePrec(minPrec int) ast.Expr {
	left := p.parsePrefix()

	for {
		kind := p.cursor.Peek().Kind
		info, ok := infixOf(kind)
		if !ok || info.prec < minPrec {
			break
		}
		opTok := p.cursor.Next()

		if kind == token.Eq {
			left = p.finishAssignment(left, opTok)
			continue
		}

		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		right := p.parsePrec(nextMin)
		left = combineInfix(kind, left, right)
	}
	return left
}

func (p *Parser) finishAssignment(left ast.Expr, eqTok token.Token) ast.Expr {
	varExpr, ok := left.(*ast.VarExpr)
	if !ok {
		p.report("invalid assignment target", left.Span())
		_ = p.parsePrec(precAssignment) // keep consuming the RHS for recovery
		return p.dummyExpr(left.Span().Join(eqTok.Span))
	}
	rhs := p.parsePrec(precAssignment)
	return ast.NewAssignmentExpr(varExpr.V, rhs, left.Span().Join(rhs.Span()))
}

func combineInfix(kind token.Kind, left, right ast.Expr) ast.Expr {
	span := left.Span().Join(right.Span())
	switch kind {
	case token.OrOr:
		return ast.NewLogicalExpr(ast.LogicalOr, left, right, span)
	case token.AndAnd:
		return ast.NewLogicalExpr(ast.LogicalAnd, left, right, span)
	case token.EqEq:
		return ast.NewCompareExpr(ast.CmpEq, left, right, span)
	case token.BangEq:
		return ast.NewCompareExpr(ast.CmpNe, left, right, span)
	case token.Lt:
		return ast.NewCompareExpr(ast.CmpLt, left, right, span)
	case token.Gt:
		return ast.NewCompareExpr(ast.CmpGt, left, right, span)
	case token.LtEq:
		return ast.NewCompareExpr(ast.CmpLe, left, right, span)
	case token.GtEq:
		return ast.NewCompareExpr(ast.CmpGe, left, right, span)
	case token.Plus:
		return ast.NewArithExpr(ast.ArithAdd, left, right, span)
	case token.Minus:
		return ast.NewArithExpr(ast.ArithSub, left, right, span)
	case token.Star:
		return ast.NewArithExpr(ast.ArithMul, left, right, span)
	case token.Slash:
		return ast.NewArithExpr(ast.ArithDiv, left, right, span)
	case token.Percent:
		return ast.NewArithExpr(ast.ArithMod, left, right, span)
	case token.Caret:
		return ast.NewArithExpr(ast.ArithPow, left, right, span)
	default:
		panic("combineInfix: unreachable kind " + kind.String())
	}
}

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.cursor.Peek()

	switch tok.Kind {
	case token.Identifier:
		p.cursor.Next()
		v := ast.NewVar(tok.Ident, tok.Span)
		return ast.NewVarExpr(v, tok.Span)

	case token.StringLiteral:
		p.cursor.Next()
		return ast.NewValueExpr(value.NewString(interner.Lookup(tok.Str)), tok.Span)

	case token.IntLiteral:
		p.cursor.Next()
		return ast.NewValueExpr(value.NewInteger(int64(tok.Int)), tok.Span)

	case token.FloatLiteral:
		p.cursor.Next()
		return ast.NewValueExpr(value.NewFloatBits(tok.Float), tok.Span)

	case token.BoolLiteral:
		p.cursor.Next()
		return ast.NewValueExpr(value.NewBool(tok.Bool), tok.Span)

	case token.Bang:
		p.cursor.Next()
		operand := p.parsePrec(precNot)
		return ast.NewNotExpr(operand, tok.Span.Join(operand.Span()))

	case token.Minus:
		p.cursor.Next()
		operand := p.parsePrec(precNegative)
		return ast.NewNegExpr(operand, tok.Span.Join(operand.Span()))

	case token.LParen:
		return p.parseGrouping()

	case token.KwPrint:
		return p.parsePrint()

	case token.Error:
		p.cursor.Next()
		p.report(tok.ErrMsg, tok.Span)
		return p.dummyExpr(tok.Span)

	default:
		p.cursor.Next()
		p.report("expected expression, found "+tok.Kind.String(), tok.Span)
		return p.dummyExpr(tok.Span)
	}
}

func (p *Parser) parseGrouping() ast.Expr {
	p.cursor.Next() // '('
	inner := p.parsePrec(precAssignment)
	if !p.cursor.Eat(token.RParen) {
		got := p.cursor.Peek()
		p.report("expected ')', found "+got.Kind.String(), got.Span)
		p.recoverToAndConsume(token.RParen)
	}
	return inner
}

func (p *Parser) parsePrint() ast.Expr {
	printTok := p.cursor.Next() // 'print'

	if _, ok := p.expect(token.LParen, "'('"); !ok {
		p.recoverToAndConsume(token.RParen)
		return p.dummyExpr(printTok.Span)
	}

	inner := p.parsePrec(precAssignment)

	endTok, ok := p.expect(token.RParen, "')'")
	if !ok {
		endTok = p.recoverToAndConsume(token.RParen)
	}

	return ast.NewDebugPrintExpr(inner, printTok.Span.Join(endTok.Span))
}
