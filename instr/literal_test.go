package instr

import (
	"math"
	"testing"
)

func TestLiteral_I32RoundTrip(t *testing.T) {
	// Bytes [1,0,0,0] are Lo=1.
	l := Literal{Lo: 1}
	if got := l.I32(); got != 1 {
		t.Fatalf("I32() = %d, want 1", got)
	}
	if got := l.Render(I32); got != "1" {
		t.Errorf("Render = %q, want \"1\"", got)
	}
}

func TestLiteral_Negative(t *testing.T) {
	l := LiteralFromBits(uint64(uint32(0xFFFFFFFF)))
	if got := l.I32(); got != -1 {
		t.Errorf("I32() = %d, want -1", got)
	}

	l64 := LiteralFromBits(math.MaxUint64)
	if got := l64.I64(); got != -1 {
		t.Errorf("I64() = %d, want -1", got)
	}
}

func TestLiteral_SplitHalves(t *testing.T) {
	const bits = uint64(0x0102030405060708)
	l := LiteralFromBits(bits)
	if l.Lo != 0x05060708 || l.Hi != 0x01020304 {
		t.Fatalf("halves = %08x/%08x", l.Lo, l.Hi)
	}
	if l.Bits() != bits {
		t.Errorf("Bits() = %x, want %x", l.Bits(), bits)
	}
}

func TestLiteral_Floats(t *testing.T) {
	f32 := Literal{Lo: math.Float32bits(1.5)}
	if got := f32.F32(); got != 1.5 {
		t.Errorf("F32() = %v, want 1.5", got)
	}

	f64 := LiteralFromBits(math.Float64bits(-2.25))
	if got := f64.F64(); got != -2.25 {
		t.Errorf("F64() = %v, want -2.25", got)
	}
}

func TestConstConstructors(t *testing.T) {
	if got := ConstI32(-7).Value.I32(); got != -7 {
		t.Errorf("ConstI32 = %d", got)
	}
	if got := ConstI64(1 << 40).Value.I64(); got != 1<<40 {
		t.Errorf("ConstI64 = %d", got)
	}
	if got := ConstF32(0.5).Value.F32(); got != 0.5 {
		t.Errorf("ConstF32 = %v", got)
	}
	if got := ConstF64(math.Pi).Value.F64(); got != math.Pi {
		t.Errorf("ConstF64 = %v", got)
	}
}
