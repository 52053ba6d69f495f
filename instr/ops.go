package instr

import "fmt"

// ValType is the value representation tag carried by typed instructions and
// literals.
type ValType uint8

const (
	I32 ValType = iota
	I64
	F32
	F64
	V128
)

var valTypeNames = []string{"i32", "i64", "f32", "f64", "v128"}

func (t ValType) String() string {
	if int(t) < len(valTypeNames) {
		return valTypeNames[t]
	}
	return fmt.Sprintf("valtype(%d)", uint8(t))
}

// Is64Bit reports whether the representation is 8 bytes wide.
func (t ValType) Is64Bit() bool { return t == I64 || t == F64 }

// IsFloat reports whether the representation is a float family member.
func (t ValType) IsFloat() bool { return t == F32 || t == F64 }

// IntType returns the integer representation at the same width. Comparison
// results are encoded in this representation.
func (t ValType) IntType() ValType {
	if t.Is64Bit() {
		return I64
	}
	return I32
}

// ByteWidth is an access width for memory instructions.
type ByteWidth uint8

const (
	Width8 ByteWidth = iota
	Width16
	Width32
	Width64
)

// WidthFromBits maps a bit count onto a ByteWidth, defaulting to 64.
func WidthFromBits(bits int) ByteWidth {
	switch bits {
	case 8:
		return Width8
	case 16:
		return Width16
	case 32:
		return Width32
	default:
		return Width64
	}
}

// Bits returns the width in bits.
func (w ByteWidth) Bits() int { return 8 << w }

// SimpleOp is a niladic instruction.
type SimpleOp uint8

const (
	Unreachable SimpleOp = iota
	Nop
	Drop
	Return
)

var simpleNames = []string{"unreachable", "nop", "drop", "return"}

func (op SimpleOp) String() string { return enumName(simpleNames, uint8(op)) }

// BlockKind tags structured control-flow markers in the flat array. End
// closes the innermost open block; the function-level end is omitted by the
// compiler.
type BlockKind uint8

const (
	KindBlock BlockKind = iota
	KindLoop
	KindIf
	KindElse
	KindEnd
)

var blockKindNames = []string{"block", "loop", "if", "else", "end"}

func (k BlockKind) String() string { return enumName(blockKindNames, uint8(k)) }

// DataOp moves values between the stack and the locals/globals tables, or
// queries memory size.
type DataOp uint8

const (
	LocalGet DataOp = iota
	LocalSet
	LocalTee
	GlobalGet
	GlobalSet
	MemorySize
	MemoryGrow
)

var dataOpNames = []string{
	"local.get", "local.set", "local.tee",
	"global.get", "global.set",
	"memory.size", "memory.grow",
}

func (op DataOp) String() string { return enumName(dataOpNames, uint8(op)) }

// ArithmeticOp is a two-operand arithmetic operation. Division and
// remainder carry signedness; the float instructions only ever map onto the
// signed division variant.
type ArithmeticOp uint8

const (
	Add ArithmeticOp = iota
	Sub
	Mul
	DivS
	DivU
	RemS
	RemU
)

var arithmeticNames = []string{"add", "sub", "mul", "div_s", "div_u", "rem_s", "rem_u"}

func (op ArithmeticOp) String() string { return enumName(arithmeticNames, uint8(op)) }

// BitwiseOp is an integer-only bit operation. Clz, Ctz and Popcnt are unary.
type BitwiseOp uint8

const (
	Clz BitwiseOp = iota
	Ctz
	Popcnt
	And
	Or
	Xor
	Shl
	ShrS
	ShrU
	Rotl
	Rotr
)

var bitwiseNames = []string{
	"clz", "ctz", "popcnt",
	"and", "or", "xor",
	"shl", "shr_s", "shr_u", "rotl", "rotr",
}

func (op BitwiseOp) String() string { return enumName(bitwiseNames, uint8(op)) }

// IsUnary reports whether the operation takes a single operand.
func (op BitwiseOp) IsUnary() bool { return op == Clz || op == Ctz || op == Popcnt }

// ComparisonOp compares one or two operands, encoding the result as 1/0 in
// the operand's integer representation. Eqz is unary; the unsigned variants
// are integer-only.
type ComparisonOp uint8

const (
	Eqz ComparisonOp = iota
	Eq
	Ne
	LtS
	LtU
	GtS
	GtU
	LeS
	LeU
	GeS
	GeU
)

var comparisonNames = []string{
	"eqz", "eq", "ne",
	"lt_s", "lt_u", "gt_s", "gt_u",
	"le_s", "le_u", "ge_s", "ge_u",
}

func (op ComparisonOp) String() string { return enumName(comparisonNames, uint8(op)) }

// IsUnary reports whether the operation takes a single operand.
func (op ComparisonOp) IsUnary() bool { return op == Eqz }

// FloatOp is a float-only operation. Min, Max and Copysign are binary, the
// rest unary.
type FloatOp uint8

const (
	Abs FloatOp = iota
	Neg
	Ceil
	Floor
	Trunc
	Nearest
	Sqrt
	Min
	Max
	Copysign
)

var floatNames = []string{
	"abs", "neg", "ceil", "floor", "trunc",
	"nearest", "sqrt", "min", "max", "copysign",
}

func (op FloatOp) String() string { return enumName(floatNames, uint8(op)) }

// IsUnary reports whether the operation takes a single operand.
func (op FloatOp) IsUnary() bool { return op != Min && op != Max && op != Copysign }

// ConversionOp names a representation change between the four numeric
// types. The Reinterpret variants reuse the bit pattern; all others convert
// numerically.
type ConversionOp uint8

const (
	I32WrapI64 ConversionOp = iota
	I32TruncF32S
	I32TruncF32U
	I32TruncF64S
	I32TruncF64U
	I64TruncF32S
	I64TruncF32U
	I64TruncF64S
	I64TruncF64U
	I64ExtendI32S
	I64ExtendI32U
	F32ConvertI32S
	F32ConvertI32U
	F32ConvertI64S
	F32ConvertI64U
	F64ConvertI32S
	F64ConvertI32U
	F64ConvertI64S
	F64ConvertI64U
	F32DemoteF64
	F64PromoteF32
	I32ReinterpretF32
	I64ReinterpretF64
	F32ReinterpretI32
	F64ReinterpretI64
)

var conversionNames = []string{
	"i32.wrap_i64",
	"i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s", "i32.trunc_f64_u",
	"i64.trunc_f32_s", "i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u",
	"i64.extend_i32_s", "i64.extend_i32_u",
	"f32.convert_i32_s", "f32.convert_i32_u", "f32.convert_i64_s", "f32.convert_i64_u",
	"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s", "f64.convert_i64_u",
	"f32.demote_f64", "f64.promote_f32",
	"i32.reinterpret_f32", "i64.reinterpret_f64",
	"f32.reinterpret_i32", "f64.reinterpret_i64",
}

func (op ConversionOp) String() string { return enumName(conversionNames, uint8(op)) }

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("op(%d)", v)
}
