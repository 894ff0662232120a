// Package compiler lowers a resolved Jellyfish AST into a chunk.Chunk.
// Jump targets are absolute byte offsets: forward jumps write a 4-byte
// placeholder and patch it once the destination is known, backward jumps
// write the already-known loop-top offset directly.
package compiler

import (
	"fmt"

	"jellyfish/internal/ast"
	"jellyfish/internal/chunk"
)

// Emitter walks a resolved *ast.Module and produces its Chunk. It assumes
// the module already passed the resolver with no errors (a DummyExpr or
// unresolved Var must never reach here); encountering one is an
// internal-consistency violation, not a user-facing error, so it panics
// rather than returning a diagnostic.
type Emitter struct {
	chunk *chunk.Chunk
}

// New builds an Emitter targeting a fresh Chunk.
func New() *Emitter {
	return &Emitter{chunk: chunk.New()}
}

// Compile lowers mod and returns the resulting Chunk, terminated by Return.
func (e *Emitter) Compile(mod *ast.Module) *chunk.Chunk {
	for _, s := range mod.Statements {
		e.statement(s)
	}
	e.chunk.WriteOp(chunk.Return)
	return e.chunk
}

func (e *Emitter) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		e.expr(n.X)
		e.chunk.WriteOp(chunk.Pop)

	case *ast.Block:
		e.block(n)

	case *ast.VarDecl:
		// The initializer's pushed value *is* the local's stack slot; it is
		// never popped here, only when the enclosing block exits.
		e.expr(n.Init)

	case *ast.IfStatement:
		e.ifStatement(n)

	case *ast.WhileLoop:
		e.whileLoop(n)

	default:
		panic(fmt.Sprintf("compiler: unhandled statement %T", s))
	}
}

// block lowers a scope's statements, then pops the locals it introduced
// (resolver-computed NumVars) to restore the enclosing stack height.
func (e *Emitter) block(b *ast.Block) {
	for _, s := range b.Statements {
		e.statement(s)
	}
	if b.NumVars == nil {
		panic("compiler: Block.NumVars unresolved; resolver must run before Compile")
	}
	for i := 0; i < *b.NumVars; i++ {
		e.chunk.WriteOp(chunk.Pop)
	}
}

// ifStatement emits: cond, JumpNotU32 -> else, then-block, [JumpU32 -> end
// if there's an else branch], else-branch (if any). JumpNotU32 pops the
// condition bool; no stack cleanup is needed at the branch join since both
// arms leave the stack at the same height.
func (e *Emitter) ifStatement(n *ast.IfStatement) {
	e.expr(n.Cond)
	e.chunk.WriteOp(chunk.JumpNotU32)
	elseJumpOperand := e.chunk.WriteU32(0) // placeholder, patched below

	e.block(n.Then)

	if !n.HasElse() {
		e.chunk.PatchU32(elseJumpOperand, uint32(e.chunk.Len()))
		return
	}

	e.chunk.WriteOp(chunk.JumpU32)
	endJumpOperand := e.chunk.WriteU32(0)

	e.chunk.PatchU32(elseJumpOperand, uint32(e.chunk.Len()))
	if n.ElseIf != nil {
		e.statement(n.ElseIf)
	} else {
		e.block(n.ElseBlock)
	}

	e.chunk.PatchU32(endJumpOperand, uint32(e.chunk.Len()))
}

// whileLoop emits: loopStart: cond, JumpNotU32 -> end, body, JumpU32 ->
// loopStart, end:
func (e *Emitter) whileLoop(n *ast.WhileLoop) {
	loopStart := e.chunk.Len()

	e.expr(n.Cond)
	e.chunk.WriteOp(chunk.JumpNotU32)
	endJumpOperand := e.chunk.WriteU32(0)

	e.block(n.Body)

	e.chunk.WriteOp(chunk.JumpU32)
	e.chunk.WriteU32(uint32(loopStart))

	e.chunk.PatchU32(endJumpOperand, uint32(e.chunk.Len()))
}

func (e *Emitter) expr(x ast.Expr) {
	switch n := x.(type) {
	case *ast.ValueExpr:
		e.chunk.EmitConstant(n.Val)

	case *ast.VarExpr:
		if n.V.Resolved == nil {
			panic("compiler: unresolved Var reached emitter; resolver must run before Compile")
		}
		e.chunk.WriteOp(chunk.LoadLocal)
		e.chunk.WriteByte(byte(*n.V.Resolved))

	case *ast.AssignmentExpr:
		e.expr(n.Value)
		if n.Target.Resolved == nil {
			panic("compiler: unresolved assignment target reached emitter")
		}
		// StoreLocal writes without popping: an assignment is itself an
		// expression whose value is the assigned value.
		e.chunk.WriteOp(chunk.StoreLocal)
		e.chunk.WriteByte(byte(*n.Target.Resolved))

	case *ast.LogicalExpr:
		e.expr(n.Left)
		e.expr(n.Right)
		switch n.Op {
		case ast.LogicalOr:
			e.chunk.WriteOp(chunk.OrBool)
		case ast.LogicalAnd:
			e.chunk.WriteOp(chunk.AndBool)
		}

	case *ast.NotExpr:
		e.expr(n.X)
		e.chunk.WriteOp(chunk.NotBool)

	case *ast.CompareExpr:
		e.compare(n)

	case *ast.ArithExpr:
		e.expr(n.Left)
		e.expr(n.Right)
		e.chunk.WriteOp(arithOp[n.Op])

	case *ast.NegExpr:
		e.expr(n.X)
		e.chunk.WriteOp(chunk.NegInt)

	case *ast.DebugPrintExpr:
		e.expr(n.X)
		e.chunk.WriteOp(chunk.DebugPrint)
		e.chunk.WriteOp(chunk.LoadUnit)

	case *ast.DummyExpr:
		panic("compiler: DummyExpr reached emitter; pipeline must abort before Compile on any diagnostic")

	default:
		panic(fmt.Sprintf("compiler: unhandled expression %T", x))
	}
}

var arithOp = map[ast.ArithOp]chunk.OpCode{
	ast.ArithAdd: chunk.AddInt,
	ast.ArithSub: chunk.SubInt,
	ast.ArithMul: chunk.MulInt,
	ast.ArithDiv: chunk.DivInt,
	ast.ArithMod: chunk.ModInt,
	ast.ArithPow: chunk.PowInt,
}

// compare lowers the six comparison operators onto the VM's three primitive
// comparisons (Equal, LT, LTEqual), swapping operands for > and >= the way
// `a > b` becomes `b < a`.
func (e *Emitter) compare(n *ast.CompareExpr) {
	switch n.Op {
	case ast.CmpEq:
		e.expr(n.Left)
		e.expr(n.Right)
		e.chunk.WriteOp(chunk.Equal)
	case ast.CmpNe:
		e.expr(n.Left)
		e.expr(n.Right)
		e.chunk.WriteOp(chunk.Equal)
		e.chunk.WriteOp(chunk.NotBool)
	case ast.CmpLt:
		e.expr(n.Left)
		e.expr(n.Right)
		e.chunk.WriteOp(chunk.LT)
	case ast.CmpLe:
		e.expr(n.Left)
		e.expr(n.Right)
		e.chunk.WriteOp(chunk.LTEqual)
	case ast.CmpGt:
		e.expr(n.Right)
		e.expr(n.Left)
		e.chunk.WriteOp(chunk.LT)
	case ast.CmpGe:
		e.expr(n.Right)
		e.expr(n.Left)
		e.chunk.WriteOp(chunk.LTEqual)
	}
}
