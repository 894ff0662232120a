// Package value defines the tagged runtime value union the VM operates on.
package value

import (
	"fmt"
	"math"
)

// Type tags the variant of a Value.
type Type int

const (
	TypeObject Type = iota
	TypeString
	TypeInteger
	TypeFloat
	TypeBool
	TypeUnit
)

func (t Type) String() string {
	switch t {
	case TypeObject:
		return "object"
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Object is a heap-allocated value shared by reference; the only variant
// Jellyfish ships today is a function object, reserved for a future
// extension no current program can construct.
type Object struct {
	Function *Function
}

// Function is the sole Object payload: a named, arity-free handle onto a
// compiled chunk. Nothing in Jellyfish today produces one.
type Function struct {
	Name string
}

func (o *Object) String() string {
	return "<function>"
}

// Value is the tagged runtime value union: Object (shared-owned handle),
// String (interned handle), Integer, Float (bit pattern), Bool, Unit.
type Value struct {
	typ     Type
	obj     *Object
	str     string
	integer int64
	floatB  uint64
	boolean bool
}

// Ty returns the tag of v.
func (v Value) Ty() Type { return v.typ }

// Unit is the single Unit value.
var Unit = Value{typ: TypeUnit}

// NewInteger constructs an Integer value.
func NewInteger(n int64) Value { return Value{typ: TypeInteger, integer: n} }

// NewFloatBits constructs a Float value from its bit pattern.
func NewFloatBits(bits uint64) Value { return Value{typ: TypeFloat, floatB: bits} }

// NewFloat constructs a Float value.
func NewFloat(f float64) Value { return Value{typ: TypeFloat, floatB: math.Float64bits(f)} }

// NewBool constructs a Bool value.
func NewBool(b bool) Value { return Value{typ: TypeBool, boolean: b} }

// NewString constructs a String value from an interned string's text.
func NewString(s string) Value { return Value{typ: TypeString, str: s} }

// NewObject constructs an Object value.
func NewObject(o *Object) Value { return Value{typ: TypeObject, obj: o} }

// AsInteger returns the Integer payload; only valid when Ty() == TypeInteger.
func (v Value) AsInteger() int64 { return v.integer }

// AsFloat returns the Float payload as a float64; only valid when
// Ty() == TypeFloat.
func (v Value) AsFloat() float64 { return math.Float64frombits(v.floatB) }

// AsFloatBits returns the raw bit pattern of a Float payload.
func (v Value) AsFloatBits() uint64 { return v.floatB }

// AsBool returns the Bool payload; only valid when Ty() == TypeBool.
func (v Value) AsBool() bool { return v.boolean }

// AsString returns the String payload; only valid when Ty() == TypeString.
func (v Value) AsString() string { return v.str }

// AsObject returns the Object payload; only valid when Ty() == TypeObject.
func (v Value) AsObject() *Object { return v.obj }

// Equal is referential for Object and structural for everything else,
// with Float compared by bit pattern (so +0.0 and -0.0 differ), except
// that a NaN is never equal to anything, itself included.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeObject:
		return v.obj == other.obj
	case TypeString:
		return v.str == other.str
	case TypeInteger:
		return v.integer == other.integer
	case TypeFloat:
		return v.floatB == other.floatB && !math.IsNaN(v.AsFloat())
	case TypeBool:
		return v.boolean == other.boolean
	case TypeUnit:
		return true
	default:
		return false
	}
}

// String renders the stable display form DebugPrint writes: decimal
// integers, Go's default float formatting, true/false, raw string content
// with no quotes, () for unit, and <function> for objects.
func (v Value) String() string {
	switch v.typ {
	case TypeInteger:
		return fmt.Sprintf("%d", v.integer)
	case TypeFloat:
		return fmt.Sprintf("%v", v.AsFloat())
	case TypeBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case TypeString:
		return v.str
	case TypeUnit:
		return "()"
	case TypeObject:
		return v.obj.String()
	default:
		return "?"
	}
}
