package chunk

import (
	"strings"
	"testing"

	"jellyfish/internal/value"
)

func TestEmitConstantUsesU8BelowThreshold(t *testing.T) {
	c := New()
	c.EmitConstant(value.NewInteger(42))

	if len(c.Code) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(c.Code))
	}
	if OpCode(c.Code[0]) != LoadConstantU8 {
		t.Fatalf("expected LoadConstantU8, got %v", OpCode(c.Code[0]))
	}
	if c.Code[1] != 0 {
		t.Fatalf("expected constant index 0, got %d", c.Code[1])
	}
}

func TestEmitConstantUsesU32AboveThreshold(t *testing.T) {
	c := New()
	for i := 0; i < 256; i++ {
		c.AddConstant(value.NewInteger(int64(i)))
	}
	c.EmitConstant(value.NewInteger(999))

	if OpCode(c.Code[0]) != LoadConstantU32 {
		t.Fatalf("expected LoadConstantU32, got %v", OpCode(c.Code[0]))
	}
	if got := c.ReadU32(1); got != 256 {
		t.Fatalf("expected constant index 256, got %d", got)
	}
}

func TestPatchU32RoundTrips(t *testing.T) {
	c := New()
	c.WriteOp(JumpU32)
	offset := c.WriteU32(0xDEADBEEF) // placeholder
	c.PatchU32(offset, 12345)

	if got := c.ReadU32(offset); got != 12345 {
		t.Fatalf("expected patched value 12345, got %d", got)
	}
}

func TestDisassembleRendersNameAndConstants(t *testing.T) {
	c := New()
	c.EmitConstant(value.NewInteger(7))
	c.WriteOp(Return)

	out := c.Disassemble("test chunk")
	if !strings.Contains(out, "== test chunk ==") {
		t.Fatalf("missing header in:\n%s", out)
	}
	if !strings.Contains(out, "LoadConstantU8") {
		t.Fatalf("missing opcode mnemonic in:\n%s", out)
	}
	if !strings.Contains(out, "'7'") {
		t.Fatalf("missing constant preview in:\n%s", out)
	}
	if !strings.Contains(out, "Return") {
		t.Fatalf("missing Return mnemonic in:\n%s", out)
	}
}

func TestOpCodeStringUnknown(t *testing.T) {
	var unknown OpCode = 250
	if !strings.HasPrefix(unknown.String(), "OpCode(") {
		t.Fatalf("expected fallback format, got %q", unknown.String())
	}
}
