package exec

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

// convert changes a value's representation. The reinterpret family reuses
// the bit pattern through a scratch buffer; everything else converts
// numerically. An operand whose representation disagrees with the
// operation's source type is a TypeMismatch; an op outside the known set is
// a defensive unreachable.
func convert(op instr.ConversionOp, v Value) (Value, error) {
	src, ok := conversionSource(op)
	if !ok {
		return Value{}, errors.Unreachable("conversion " + op.String())
	}
	if v.Type != src {
		return Value{}, errors.TypeMismatch(src.String(), v.Type.String())
	}

	switch op {
	case instr.I32WrapI64:
		return I32Value(int32(v.I64())), nil

	case instr.I32TruncF32S:
		return I32Value(int32(v.F32())), nil
	case instr.I32TruncF32U:
		return I32Value(int32(uint32(v.F32()))), nil
	case instr.I32TruncF64S:
		return I32Value(int32(v.F64())), nil
	case instr.I32TruncF64U:
		return I32Value(int32(uint32(v.F64()))), nil

	case instr.I64TruncF32S:
		return I64Value(int64(v.F32())), nil
	case instr.I64TruncF32U:
		return I64Value(int64(uint64(v.F32()))), nil
	case instr.I64TruncF64S:
		return I64Value(int64(v.F64())), nil
	case instr.I64TruncF64U:
		return I64Value(int64(uint64(v.F64()))), nil

	case instr.I64ExtendI32S:
		return I64Value(int64(v.I32())), nil
	case instr.I64ExtendI32U:
		return I64Value(int64(v.U32())), nil

	case instr.F32ConvertI32S:
		return F32Value(float32(v.I32())), nil
	case instr.F32ConvertI32U:
		return F32Value(float32(v.U32())), nil
	case instr.F32ConvertI64S:
		return F32Value(float32(v.I64())), nil
	case instr.F32ConvertI64U:
		return F32Value(float32(v.U64())), nil

	case instr.F64ConvertI32S:
		return F64Value(float64(v.I32())), nil
	case instr.F64ConvertI32U:
		return F64Value(float64(v.U32())), nil
	case instr.F64ConvertI64S:
		return F64Value(float64(v.I64())), nil
	case instr.F64ConvertI64U:
		return F64Value(float64(v.U64())), nil

	case instr.F32DemoteF64:
		return F32Value(float32(v.F64())), nil
	case instr.F64PromoteF32:
		return F64Value(float64(v.F32())), nil

	case instr.I32ReinterpretF32:
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v.F32()))
		return I32Value(int32(binary.LittleEndian.Uint32(buf[:4]))), nil
	case instr.I64ReinterpretF64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.F64()))
		return I64Value(int64(binary.LittleEndian.Uint64(buf[:]))), nil
	case instr.F32ReinterpretI32:
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[:4], v.U32())
		return F32Value(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))), nil
	case instr.F64ReinterpretI64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v.U64())
		return F64Value(math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))), nil
	}

	return Value{}, errors.Unreachable("conversion " + op.String())
}

// conversionSource maps an operation onto the representation it consumes.
func conversionSource(op instr.ConversionOp) (instr.ValType, bool) {
	switch op {
	case instr.I32WrapI64, instr.F32ConvertI64S, instr.F32ConvertI64U,
		instr.F64ConvertI64S, instr.F64ConvertI64U, instr.F64ReinterpretI64:
		return instr.I64, true
	case instr.I64ExtendI32S, instr.I64ExtendI32U,
		instr.F32ConvertI32S, instr.F32ConvertI32U,
		instr.F64ConvertI32S, instr.F64ConvertI32U, instr.F32ReinterpretI32:
		return instr.I32, true
	case instr.I32TruncF32S, instr.I32TruncF32U,
		instr.I64TruncF32S, instr.I64TruncF32U,
		instr.F64PromoteF32, instr.I32ReinterpretF32:
		return instr.F32, true
	case instr.I32TruncF64S, instr.I32TruncF64U,
		instr.I64TruncF64S, instr.I64TruncF64U,
		instr.F32DemoteF64, instr.I64ReinterpretF64:
		return instr.F64, true
	}
	return 0, false
}
