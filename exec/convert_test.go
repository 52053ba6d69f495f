package exec

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

func TestConvert_Numeric(t *testing.T) {
	tests := []struct {
		name string
		op   instr.ConversionOp
		in   Value
		want Value
	}{
		{"wrap", instr.I32WrapI64, I64Value(0x1_0000_0005), I32Value(5)},
		{"wrap negative", instr.I32WrapI64, I64Value(-1), I32Value(-1)},
		{"trunc f64 to i32", instr.I32TruncF64S, F64Value(-3.9), I32Value(-3)},
		{"trunc f32 to i64", instr.I64TruncF32S, F32Value(100.5), I64Value(100)},
		{"extend signed", instr.I64ExtendI32S, I32Value(-1), I64Value(-1)},
		{"extend unsigned", instr.I64ExtendI32U, I32Value(-1), I64Value(0xFFFFFFFF)},
		{"convert signed", instr.F64ConvertI32S, I32Value(-2), F64Value(-2)},
		{"convert unsigned", instr.F32ConvertI32U, I32Value(-1), F32Value(4294967295)},
		{"demote", instr.F32DemoteF64, F64Value(1.5), F32Value(1.5)},
		{"promote", instr.F64PromoteF32, F32Value(0.25), F64Value(0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.op, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s(%s) = %v, want %v", tt.op, tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert_ReinterpretRoundTrip(t *testing.T) {
	// Reinterpretation reuses the bit pattern exactly, so converting there
	// and back must be the identity even for patterns that are not ordinary
	// numbers.
	f32bits := I32Value(int32(math.Float32bits(float32(math.NaN()))))
	asFloat, err := convert(instr.F32ReinterpretI32, f32bits)
	if err != nil {
		t.Fatal(err)
	}
	back, err := convert(instr.I32ReinterpretF32, asFloat)
	if err != nil {
		t.Fatal(err)
	}
	if back != f32bits {
		t.Errorf("round trip changed bits: %#x -> %#x", f32bits.Bits, back.Bits)
	}

	f64v := F64Value(math.Copysign(0, -1))
	asInt, err := convert(instr.I64ReinterpretF64, f64v)
	if err != nil {
		t.Fatal(err)
	}
	if asInt.U64() != 1<<63 {
		t.Errorf("i64.reinterpret_f64(-0.0) = %#x, want sign bit only", asInt.U64())
	}
	back64, err := convert(instr.F64ReinterpretI64, asInt)
	if err != nil {
		t.Fatal(err)
	}
	if back64 != f64v {
		t.Errorf("round trip changed bits: %#x -> %#x", f64v.Bits, back64.Bits)
	}
}

func TestConvert_SourceTypeMismatch(t *testing.T) {
	_, err := convert(instr.I32WrapI64, I32Value(1))
	if !stderrors.Is(err, &errors.Error{Stage: errors.StageExecute, Kind: errors.KindTypeMismatch}) {
		t.Fatalf("error = %v, want type_mismatch", err)
	}
}
