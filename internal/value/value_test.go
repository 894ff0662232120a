package value

import (
	"math"
	"testing"
)

func TestEqualStructuralForMostVariants(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"integers equal", NewInteger(7), NewInteger(7), true},
		{"integers differ", NewInteger(7), NewInteger(8), false},
		{"strings equal", NewString("hi"), NewString("hi"), true},
		{"strings differ", NewString("hi"), NewString("bye"), false},
		{"bools equal", NewBool(true), NewBool(true), true},
		{"bools differ", NewBool(true), NewBool(false), false},
		{"units always equal", Unit, Unit, true},
		{"different types never equal", NewInteger(1), NewBool(true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqualObjectIsReferential(t *testing.T) {
	f := NewObject(&Object{Function: &Function{Name: "f"}})
	same := f
	other := NewObject(&Object{Function: &Function{Name: "f"}})

	if !f.Equal(same) {
		t.Error("expected a value to be equal to itself")
	}
	if f.Equal(other) {
		t.Error("expected distinct Object handles with equal payloads to compare unequal")
	}
}

func TestEqualFloatByBitPattern(t *testing.T) {
	nan := NewFloat(math.NaN())
	if nan.Equal(nan) {
		t.Error("expected NaN to not equal itself, per bit-pattern comparison")
	}

	posZero := NewFloat(0.0)
	negZero := NewFloat(math.Copysign(0, -1))
	if posZero.Equal(negZero) {
		t.Error("expected +0.0 and -0.0 to differ under bit-pattern comparison")
	}

	a := NewFloat(1.5)
	b := NewFloatBits(a.AsFloatBits())
	if !a.Equal(b) {
		t.Error("expected identical bit patterns to compare equal")
	}
}
