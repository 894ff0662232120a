// Package vm implements the Jellyfish stack machine. It has no call
// frames: Jellyfish has no functions to call, so the value stack alone
// serves as both operand stack and local-variable storage, indexed by the
// resolver's flat slot numbers.
//
// Runtime failures are reported as plain Go errors; diagnostic.Diagnostic
// is reserved for the compile-time parser/resolver stages, which can
// recover and keep going, unlike the VM which halts on its first error.
package vm

import (
	"fmt"
	"io"
	"math"

	"jellyfish/internal/chunk"
	"jellyfish/internal/value"
)

// StackMax bounds the value stack; locals are capped at 256, but nested
// expressions push well beyond that onto the same stack.
const StackMax = 4096

// VM executes one Chunk to completion against a single value stack.
type VM struct {
	stack    [StackMax]value.Value
	stackTop int
	out      io.Writer
}

// New builds a VM that writes DebugPrint output to out.
func New(out io.Writer) *VM {
	return &VM{out: out}
}

func (vm *VM) push(v value.Value) {
	if vm.stackTop >= StackMax {
		panic("vm: stack overflow")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	v := vm.stack[vm.stackTop]
	vm.stack[vm.stackTop] = value.Value{}
	return v
}

func (vm *VM) peek() value.Value {
	return vm.stack[vm.stackTop-1]
}

func (vm *VM) runtimeError(ip int, format string, args ...interface{}) error {
	return fmt.Errorf("runtime error at offset %d: %s", ip, fmt.Sprintf(format, args...))
}

// Run executes c from offset 0 until it hits Return, writing any
// DebugPrint output to vm's configured writer. It halts and returns the
// first runtime error encountered.
func (vm *VM) Run(c *chunk.Chunk) error {
	ip := 0

	readByte := func() byte {
		b := c.Code[ip]
		ip++
		return b
	}
	readU32 := func() uint32 {
		v := c.ReadU32(ip)
		ip += 4
		return v
	}

	for {
		opIP := ip
		op := chunk.OpCode(readByte())

		switch op {
		case chunk.LoadConstantU8:
			idx := readByte()
			vm.push(c.Constants[idx])

		case chunk.LoadConstantU32:
			idx := readU32()
			vm.push(c.Constants[idx])

		case chunk.LoadUnit:
			vm.push(value.Unit)

		case chunk.LoadLocal:
			slot := readByte()
			vm.push(vm.stack[slot])

		case chunk.StoreLocal:
			slot := readByte()
			// Leaves the value on the stack: assignment is itself an
			// expression whose value is the assigned value.
			vm.stack[slot] = vm.peek()

		case chunk.Pop:
			vm.pop()

		case chunk.OrBool:
			b, a, err := vm.popBoolPair(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(a || b))

		case chunk.AndBool:
			b, a, err := vm.popBoolPair(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(a && b))

		case chunk.NotBool:
			a, err := vm.popBool(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(!a))

		case chunk.Equal:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(a == b))

		case chunk.LT:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(a < b))

		case chunk.LTEqual:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			vm.push(value.NewBool(a <= b))

		case chunk.AddInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			sum, ok := addOverflows(a, b)
			if !ok {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(sum))

		case chunk.SubInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			diff, ok := subOverflows(a, b)
			if !ok {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(diff))

		case chunk.MulInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			prod, ok := mulOverflows(a, b)
			if !ok {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(prod))

		case chunk.DivInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			if b == 0 {
				return vm.runtimeError(opIP, "division by zero")
			}
			if a == math.MinInt64 && b == -1 {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(a / b))

		case chunk.ModInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			if b == 0 {
				return vm.runtimeError(opIP, "division by zero")
			}
			if a == math.MinInt64 && b == -1 {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(a % b))

		case chunk.PowInt:
			b, a, err := vm.popIntPair(opIP)
			if err != nil {
				return err
			}
			// The exponent is taken as unsigned 32-bit.
			result, ok := intPow(a, uint32(b))
			if !ok {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(result))

		case chunk.NegInt:
			a, err := vm.popInt(opIP)
			if err != nil {
				return err
			}
			if a == math.MinInt64 {
				return vm.runtimeError(opIP, "integer overflow")
			}
			vm.push(value.NewInteger(-a))

		case chunk.JumpU32:
			dest := readU32()
			ip = int(dest)

		case chunk.JumpNotU32:
			dest := readU32()
			cond, err := vm.popBool(opIP)
			if err != nil {
				return err
			}
			if !cond {
				ip = int(dest)
			}

		case chunk.DebugPrint:
			v := vm.pop()
			fmt.Fprintln(vm.out, v.String())

		case chunk.Return:
			return nil

		default:
			return vm.runtimeError(opIP, "unknown opcode %d", byte(op))
		}
	}
}

func (vm *VM) popBool(ip int) (bool, error) {
	v := vm.pop()
	if v.Ty() != value.TypeBool {
		return false, vm.runtimeError(ip, "expected bool, found %s", v.Ty())
	}
	return v.AsBool(), nil
}

func (vm *VM) popBoolPair(ip int) (b, a bool, err error) {
	b, err = vm.popBool(ip)
	if err != nil {
		return
	}
	a, err = vm.popBool(ip)
	return
}

func (vm *VM) popInt(ip int) (int64, error) {
	v := vm.pop()
	if v.Ty() != value.TypeInteger {
		return 0, vm.runtimeError(ip, "expected integer, found %s", v.Ty())
	}
	return v.AsInteger(), nil
}

func (vm *VM) popIntPair(ip int) (b, a int64, err error) {
	b, err = vm.popInt(ip)
	if err != nil {
		return
	}
	a, err = vm.popInt(ip)
	return
}

// addOverflows reports whether a+b fits in an int64.
func addOverflows(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// subOverflows reports whether a-b fits in an int64.
func subOverflows(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

// mulOverflows reports whether a*b fits in an int64.
func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	prod := a * b
	if prod/b != a {
		return 0, false
	}
	return prod, true
}

// intPow computes base^exp by repeated squaring, stopping with ok=false on
// the first intermediate overflow.
func intPow(base int64, exp uint32) (int64, bool) {
	result := int64(1)
	ok := true
	for exp > 0 {
		if exp&1 == 1 {
			result, ok = mulOverflows(result, base)
			if !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			base, ok = mulOverflows(base, base)
			if !ok {
				return 0, false
			}
		}
	}
	return result, true
}
