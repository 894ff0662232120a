// Package resolver binds named variable occurrences to numbered stack
// slots in one depth-first traversal, producing the annotations the
// emitter later turns into LoadLocal/StoreLocal operands. Slot indices are
// absolute positions in a single flat binding vector, so nested scopes see
// outer locals for free and outer indices stay valid after an inner scope
// exits.
package resolver

import (
	"jellyfish/internal/ast"
	"jellyfish/internal/diagnostic"
	"jellyfish/internal/interner"
)

const maxLocals = 256

// binding is one declared local, in declaration order.
type binding struct {
	name    interner.Symbol
	defined bool
}

// Resolver walks a Module and assigns ast.Var.Resolved slot indices.
type Resolver struct {
	vars   []binding
	scopes []int // saved len(vars) at each open block, for scope exit truncation
	diags  *diagnostic.Collector
	failed bool
}

// New builds a Resolver reporting into diags.
func New(diags *diagnostic.Collector) *Resolver {
	return &Resolver{diags: diags}
}

// Resolve walks mod. Resolution aborts on the first error: once a
// diagnostic has been reported, Resolve stops descending further and
// returns, leaving the rest of the tree's Var/Block nodes unannotated (the
// pipeline must not proceed to emission after any reported diagnostic).
func (r *Resolver) Resolve(mod *ast.Module) {
	r.visitStatements(mod.Statements)
}

// Reset clears the first-error-abort latch and rebinds the diagnostic
// sink, so the same Resolver (and its accumulated module-level bindings)
// can resolve another Module against a fresh Collector. Used by the REPL,
// which keeps one Resolver (and so its module-level bindings) alive across
// lines while each line gets its own Collector to report into.
func (r *Resolver) Reset(diags *diagnostic.Collector) {
	r.failed = false
	r.diags = diags
}

func (r *Resolver) ok() bool { return !r.failed }

func (r *Resolver) fail(d *diagnostic.Diagnostic) {
	r.diags.Report(d)
	r.failed = true
}

func (r *Resolver) visitStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		if !r.ok() {
			return
		}
		r.visitStatement(s)
	}
}

func (r *Resolver) visitStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		r.visitExpr(n.X)
	case *ast.Block:
		r.visitBlock(n)
	case *ast.VarDecl:
		r.visitVarDecl(n)
	case *ast.IfStatement:
		r.visitIf(n)
	case *ast.WhileLoop:
		r.visitWhile(n)
	}
}

// visitBlock opens a scope, visits statements, sets NumVars to the count
// of locals introduced directly here, then truncates back to the scope's
// starting height.
func (r *Resolver) visitBlock(b *ast.Block) {
	scopeStart := len(r.vars)
	r.scopes = append(r.scopes, scopeStart)

	r.visitStatements(b.Statements)

	n := len(r.vars) - scopeStart
	b.NumVars = &n

	r.vars = r.vars[:scopeStart]
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// visitVarDecl pushes the binding undefined, resolves the initializer
// against the *old* scope (so `let x = x;` cannot see the new x), and only
// then marks it defined.
func (r *Resolver) visitVarDecl(d *ast.VarDecl) {
	r.vars = append(r.vars, binding{name: d.Name, defined: false})

	if len(r.vars) > maxLocals {
		r.fail(diagnostic.New("too many locals in scope").
			WithLabel("this declaration exceeds the 256-local limit", d.Span()))
		return
	}

	r.visitExpr(d.Init)
	if !r.ok() {
		return
	}

	r.vars[len(r.vars)-1].defined = true
}

func (r *Resolver) visitIf(n *ast.IfStatement) {
	r.visitExpr(n.Cond)
	if !r.ok() {
		return
	}
	r.visitBlock(n.Then)
	if !r.ok() {
		return
	}
	if n.ElseIf != nil {
		r.visitStatement(n.ElseIf)
	} else if n.ElseBlock != nil {
		r.visitBlock(n.ElseBlock)
	}
}

func (r *Resolver) visitWhile(n *ast.WhileLoop) {
	r.visitExpr(n.Cond)
	if !r.ok() {
		return
	}
	r.visitBlock(n.Body)
}

func (r *Resolver) visitExpr(e ast.Expr) {
	if !r.ok() || e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.VarExpr:
		r.visitVar(n.V)
	case *ast.ValueExpr:
		// literal, nothing to resolve
	case *ast.LogicalExpr:
		r.visitExpr(n.Left)
		r.visitExpr(n.Right)
	case *ast.NotExpr:
		r.visitExpr(n.X)
	case *ast.CompareExpr:
		r.visitExpr(n.Left)
		r.visitExpr(n.Right)
	case *ast.ArithExpr:
		r.visitExpr(n.Left)
		r.visitExpr(n.Right)
	case *ast.NegExpr:
		r.visitExpr(n.X)
	case *ast.AssignmentExpr:
		r.visitAssignment(n)
	case *ast.DebugPrintExpr:
		r.visitExpr(n.X)
	case *ast.DummyExpr:
		// The pipeline already aborted on whatever diagnostic produced
		// this recovery node, so there's nothing to resolve here.
	}
}

// visitVar searches from the end of vars for a binding with matching name
// that is already defined, so an inner shadowing binding wins by recency.
func (r *Resolver) visitVar(v *ast.Var) {
	for i := len(r.vars) - 1; i >= 0; i-- {
		if r.vars[i].name == v.Name && r.vars[i].defined {
			idx := i
			v.Resolved = &idx
			return
		}
	}
	r.fail(diagnostic.New("unresolved variable").
		WithLabel("no local named '"+interner.Lookup(v.Name)+"' is in scope here", v.Span()))
}

// visitAssignment resolves the LHS first (it must already exist and be
// defined), then visits the RHS.
func (r *Resolver) visitAssignment(n *ast.AssignmentExpr) {
	r.visitVar(n.Target)
	if !r.ok() {
		return
	}
	r.visitExpr(n.Value)
}
