package exec

import (
	"encoding/json"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wat-tracer/instr"
)

// Value is one stack slot: a representation tag plus the raw 64-bit pattern,
// encoded the same way wazero passes values across the host boundary.
type Value struct {
	Type instr.ValType
	Bits uint64
}

// I32Value builds an i32 value.
func I32Value(v int32) Value { return Value{Type: instr.I32, Bits: api.EncodeI32(v)} }

// I64Value builds an i64 value.
func I64Value(v int64) Value { return Value{Type: instr.I64, Bits: api.EncodeI64(v)} }

// F32Value builds an f32 value.
func F32Value(v float32) Value { return Value{Type: instr.F32, Bits: api.EncodeF32(v)} }

// F64Value builds an f64 value.
func F64Value(v float64) Value { return Value{Type: instr.F64, Bits: api.EncodeF64(v)} }

// Zero returns the zero value of the given representation.
func Zero(t instr.ValType) Value { return Value{Type: t} }

// FromLiteral decodes a compiler literal into a runtime value.
func FromLiteral(t instr.ValType, l instr.Literal) Value {
	bits := l.Bits()
	if !t.Is64Bit() {
		bits &= 0xFFFFFFFF
	}
	return Value{Type: t, Bits: bits}
}

// I32 reads the value as a signed 32-bit integer.
func (v Value) I32() int32 { return api.DecodeI32(v.Bits) }

// U32 reads the value as an unsigned 32-bit integer.
func (v Value) U32() uint32 { return api.DecodeU32(v.Bits) }

// I64 reads the value as a signed 64-bit integer.
func (v Value) I64() int64 { return int64(v.Bits) }

// U64 reads the raw pattern as an unsigned 64-bit integer.
func (v Value) U64() uint64 { return v.Bits }

// F32 reads the value as a 32-bit float.
func (v Value) F32() float32 { return api.DecodeF32(v.Bits) }

// F64 reads the value as a 64-bit float.
func (v Value) F64() float64 { return api.DecodeF64(v.Bits) }

// IsZero reports representation-zero, the condition branch and conditional
// block tests use.
func (v Value) IsZero() bool { return v.Bits == 0 }

// Interface returns the value in its native Go representation.
func (v Value) Interface() any {
	switch v.Type {
	case instr.I64:
		return v.I64()
	case instr.F32:
		return v.F32()
	case instr.F64:
		return v.F64()
	default:
		return v.I32()
	}
}

func (v Value) String() string {
	switch v.Type {
	case instr.I64:
		return strconv.FormatInt(v.I64(), 10)
	case instr.F32:
		return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case instr.F64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v.I32()), 10)
	}
}

// MarshalJSON encodes the value as a bare number, matching what the
// visualization layer consumes.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
