package resolver

import (
	"testing"

	"jellyfish/internal/ast"
	"jellyfish/internal/diagnostic"
	"jellyfish/internal/lexer"
	"jellyfish/internal/parser"
	"jellyfish/internal/source"
)

func resolveSrc(t *testing.T, src string) (*ast.Module, *diagnostic.Collector) {
	t.Helper()
	diags := &diagnostic.Collector{}
	cursor := lexer.NewCursor(lexer.New(source.New("test.jf", src)))
	mod := parser.New(cursor, diags).ParseModule()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.Diagnostics())
	}
	New(diags).Resolve(mod)
	return mod, diags
}

func TestResolveSimpleVar(t *testing.T) {
	mod, diags := resolveSrc(t, "let x = 1; x;")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	use := mod.Statements[1].(*ast.ExprStmt).X.(*ast.VarExpr)
	if use.V.Resolved == nil || *use.V.Resolved != 0 {
		t.Fatalf("expected x to resolve to slot 0, got %v", use.V.Resolved)
	}
}

func TestSelfReferentialLetIsUnresolved(t *testing.T) {
	_, diags := resolveSrc(t, "let x = x;")
	if !diags.HasErrors() {
		t.Fatal("expected an unresolved-variable diagnostic for `let x = x;`")
	}
}

func TestBlockScopeTruncatesOnExit(t *testing.T) {
	mod, diags := resolveSrc(t, `
		let a = 1;
		{
			let b = 2;
		}
		let c = 3;
	`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	// `c` (mod.Statements[2]) reuses `b`'s slot since the block's locals go
	// out of scope at exit: a=0, b=1 inside the block, then c=1 after.
	block := mod.Statements[1].(*ast.Block)
	if block.NumVars == nil || *block.NumVars != 1 {
		t.Fatalf("expected block to introduce exactly 1 local, got %v", block.NumVars)
	}
}

func TestVariableOutOfScopeIsUnresolved(t *testing.T) {
	_, diags := resolveSrc(t, `
		{
			let b = 2;
		}
		b;
	`)
	if !diags.HasErrors() {
		t.Fatal("expected an unresolved-variable diagnostic once b's block has exited")
	}
}

func TestShadowingResolvesToInnermostBinding(t *testing.T) {
	mod, diags := resolveSrc(t, `
		let x = 1;
		{
			let x = 2;
			x;
		}
	`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	block := mod.Statements[1].(*ast.Block)
	innerUse := block.Statements[1].(*ast.ExprStmt).X.(*ast.VarExpr)
	if innerUse.V.Resolved == nil || *innerUse.V.Resolved != 1 {
		t.Fatalf("expected inner x to resolve to slot 1 (the shadowing binding), got %v", innerUse.V.Resolved)
	}
}

func TestAssignmentResolvesTargetBeforeValue(t *testing.T) {
	mod, diags := resolveSrc(t, "let x = 1; x = x + 1;")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}
	assign := mod.Statements[1].(*ast.ExprStmt).X.(*ast.AssignmentExpr)
	if assign.Target.Resolved == nil || *assign.Target.Resolved != 0 {
		t.Fatalf("expected assignment target to resolve to slot 0, got %v", assign.Target.Resolved)
	}
}

func TestTooManyLocalsInScopeIsReported(t *testing.T) {
	src := "{\n"
	for i := 0; i < 300; i++ {
		src += "let v" + itoa(i) + " = 0;\n"
	}
	src += "}\n"
	_, diags := resolveSrc(t, src)
	if !diags.HasErrors() {
		t.Fatal("expected a too-many-locals diagnostic past the 256 limit")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	src := `
		let a = 1;
		{
			let b = a;
			b = a + b;
		}
		let c = a;
	`
	mod, diags := resolveSrc(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics())
	}

	first := snapshotSlots(mod.Statements)
	New(&diagnostic.Collector{}).Resolve(mod)
	second := snapshotSlots(mod.Statements)

	if len(first) != len(second) {
		t.Fatalf("slot count changed across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d changed across runs: %d vs %d", i, first[i], second[i])
		}
	}
}

// snapshotSlots collects every resolved slot index and block-local count in
// traversal order.
func snapshotSlots(stmts []ast.Statement) []int {
	var out []int
	var visitExpr func(e ast.Expr)
	visitExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.VarExpr:
			out = append(out, *n.V.Resolved)
		case *ast.AssignmentExpr:
			out = append(out, *n.Target.Resolved)
			visitExpr(n.Value)
		case *ast.ArithExpr:
			visitExpr(n.Left)
			visitExpr(n.Right)
		}
	}
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.ExprStmt:
			visitExpr(n.X)
		case *ast.VarDecl:
			visitExpr(n.Init)
		case *ast.Block:
			out = append(out, snapshotSlots(n.Statements)...)
			out = append(out, *n.NumVars)
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
