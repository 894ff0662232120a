// Package ast defines the Jellyfish abstract syntax tree. Children are
// owned, indirect (pointer) nodes with no sharing: every recursive field
// is a unique owner of its child.
package ast

import (
	"jellyfish/internal/interner"
	"jellyfish/internal/source"
	"jellyfish/internal/value"
)

// Node is implemented by every AST node.
type Node interface {
	Span() source.Span
}

// Statement is implemented by every statement node.
type Statement interface {
	Node
	statementNode()
}

// Expr is implemented by every expression node. There is no inferred-type
// slot: no separate type-inference pass runs (operand types are checked at
// run time by the VM), so such a slot would have no writer.
type Expr interface {
	Node
	exprNode()
}

// exprBase factors the span bookkeeping shared by every Expr implementation.
type exprBase struct {
	span source.Span
}

func (e *exprBase) Span() source.Span { return e.span }

// Module is the root node: an ordered list of top-level statements.
type Module struct {
	Statements []Statement
}

// Var is an identifier occurrence, resolved to a stack-slot index by the
// resolver before it reaches the emitter.
type Var struct {
	Name     interner.Symbol
	Resolved *int // nil until resolved; must be set by emit time
	span     source.Span
}

func NewVar(name interner.Symbol, span source.Span) *Var {
	return &Var{Name: name, span: span}
}

func (v *Var) Span() source.Span { return v.span }

// ---- Statements ----

// ExprStmt is a bare expression statement: `expr ;`.
type ExprStmt struct {
	X    Expr
	span source.Span
}

func (s *ExprStmt) statementNode()    {}
func (s *ExprStmt) Span() source.Span { return s.span }

// NewExprStmt builds an ExprStmt spanning the whole `expr ;`.
func NewExprStmt(x Expr, span source.Span) *ExprStmt {
	return &ExprStmt{X: x, span: span}
}

// Block is a `{ ... }` scope. NumVars is filled in by the resolver: the
// count of locals introduced directly in this block, consumed by the
// emitter to balance the stack on scope exit.
type Block struct {
	Statements []Statement
	NumVars    *int
	span       source.Span
}

func NewBlock(stmts []Statement, span source.Span) *Block {
	return &Block{Statements: stmts, span: span}
}

func (b *Block) statementNode()    {}
func (b *Block) Span() source.Span { return b.span }

// VarDecl is `let IDENT = expr ;`.
type VarDecl struct {
	Name     interner.Symbol
	NameSpan source.Span
	Init     Expr
	span     source.Span
}

func NewVarDecl(name interner.Symbol, nameSpan source.Span, init Expr, span source.Span) *VarDecl {
	return &VarDecl{Name: name, NameSpan: nameSpan, Init: init, span: span}
}

func (d *VarDecl) statementNode()    {}
func (d *VarDecl) Span() source.Span { return d.span }

// IfStatement is `if cond then (else (if|block))?`. Else chains as either
// another *IfStatement (an `else if`) or a terminal *Block.
type IfStatement struct {
	Cond       Expr
	Then       *Block
	ElseIf     *IfStatement
	ElseBlock  *Block
	span       source.Span
}

func NewIfStatement(cond Expr, then *Block, span source.Span) *IfStatement {
	return &IfStatement{Cond: cond, Then: then, span: span}
}

func (s *IfStatement) statementNode()    {}
func (s *IfStatement) Span() source.Span { return s.span }

// HasElse reports whether this if has any else branch at all.
func (s *IfStatement) HasElse() bool {
	return s.ElseIf != nil || s.ElseBlock != nil
}

// WhileLoop is `while cond block`.
type WhileLoop struct {
	Cond Expr
	Body *Block
	span source.Span
}

func NewWhileLoop(cond Expr, body *Block, span source.Span) *WhileLoop {
	return &WhileLoop{Cond: cond, Body: body, span: span}
}

func (w *WhileLoop) statementNode()    {}
func (w *WhileLoop) Span() source.Span { return w.span }

// ---- Expressions ----

// VarExpr wraps a Var occurrence as an expression.
type VarExpr struct {
	exprBase
	V *Var
}

func NewVarExpr(v *Var, span source.Span) *VarExpr {
	e := &VarExpr{V: v}
	e.span = span
	return e
}

func (e *VarExpr) exprNode() {}

// ValueExpr is a literal: integer, bool, float, or string.
type ValueExpr struct {
	exprBase
	Val value.Value
}

func NewValueExpr(v value.Value, span source.Span) *ValueExpr {
	e := &ValueExpr{Val: v}
	e.span = span
	return e
}

func (e *ValueExpr) exprNode() {}

// LogicalOp tags Or/And logical binary expressions.
type LogicalOp int

const (
	LogicalOr LogicalOp = iota
	LogicalAnd
)

// LogicalExpr is `a && b` / `a || b` (strict: both operands are always
// evaluated, no short-circuit).
type LogicalExpr struct {
	exprBase
	Op          LogicalOp
	Left, Right Expr
}

func NewLogicalExpr(op LogicalOp, left, right Expr, span source.Span) *LogicalExpr {
	e := &LogicalExpr{Op: op, Left: left, Right: right}
	e.span = span
	return e
}

func (e *LogicalExpr) exprNode() {}

// NotExpr is `!a`.
type NotExpr struct {
	exprBase
	X Expr
}

func NewNotExpr(x Expr, span source.Span) *NotExpr {
	e := &NotExpr{X: x}
	e.span = span
	return e
}

func (e *NotExpr) exprNode() {}

// CompareOp tags the comparison operators.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpGt
	CmpLe
	CmpGe
)

// CompareExpr is `a == b`, `!=`, `<`, `>`, `<=`, `>=`.
type CompareExpr struct {
	exprBase
	Op          CompareOp
	Left, Right Expr
}

func NewCompareExpr(op CompareOp, left, right Expr, span source.Span) *CompareExpr {
	e := &CompareExpr{Op: op, Left: left, Right: right}
	e.span = span
	return e
}

func (e *CompareExpr) exprNode() {}

// ArithOp tags the arithmetic binary operators.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithMod
	ArithPow
)

// ArithExpr is `a + b`, `-`, `*`, `/`, `%`, `^`.
type ArithExpr struct {
	exprBase
	Op          ArithOp
	Left, Right Expr
}

func NewArithExpr(op ArithOp, left, right Expr, span source.Span) *ArithExpr {
	e := &ArithExpr{Op: op, Left: left, Right: right}
	e.span = span
	return e
}

func (e *ArithExpr) exprNode() {}

// NegExpr is unary `-a`.
type NegExpr struct {
	exprBase
	X Expr
}

func NewNegExpr(x Expr, span source.Span) *NegExpr {
	e := &NegExpr{X: x}
	e.span = span
	return e
}

func (e *NegExpr) exprNode() {}

// AssignmentExpr is `lhs = rhs`; the parser rejects non-Var assignment
// targets before this node even exists.
type AssignmentExpr struct {
	exprBase
	Target *Var
	Value  Expr
}

func NewAssignmentExpr(target *Var, val Expr, span source.Span) *AssignmentExpr {
	e := &AssignmentExpr{Target: target, Value: val}
	e.span = span
	return e
}

func (e *AssignmentExpr) exprNode() {}

// DebugPrintExpr is `print ( expr )`.
type DebugPrintExpr struct {
	exprBase
	X Expr
}

func NewDebugPrintExpr(x Expr, span source.Span) *DebugPrintExpr {
	e := &DebugPrintExpr{X: x}
	e.span = span
	return e
}

func (e *DebugPrintExpr) exprNode() {}

// DummyExpr is a synthetic recovery placeholder. It must never reach the
// emitter; the pipeline short-circuits on prior diagnostics before
// lowering.
type DummyExpr struct {
	exprBase
}

func NewDummyExpr(span source.Span) *DummyExpr {
	e := &DummyExpr{}
	e.span = span
	return e
}

func (e *DummyExpr) exprNode() {}

// IsDummy reports whether e is a DummyExpr. Statements are not inspected.
func IsDummy(e Expr) bool {
	_, ok := e.(*DummyExpr)
	return ok
}
