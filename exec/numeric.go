package exec

import (
	"math"
	"math/bits"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

// The numeric evaluator is pure: operands in, result or error out. Operand
// representations must match the instruction's; integer and float families
// never mix. Unary operations receive a zero-valued second operand.

func evalArithmetic(op instr.ArithmeticOp, t instr.ValType, a, b Value) (Value, error) {
	if err := checkOperands(t, a, b); err != nil {
		return Value{}, err
	}
	name := t.String() + "." + op.String()

	if t.IsFloat() {
		return evalFloatArithmetic(op, t, a, b, name)
	}

	if t == instr.I64 {
		x, y := a.I64(), b.I64()
		switch op {
		case instr.Add:
			return I64Value(x + y), nil
		case instr.Sub:
			return I64Value(x - y), nil
		case instr.Mul:
			return I64Value(x * y), nil
		case instr.DivS:
			if y == 0 {
				return Value{}, errors.DivideByZero(name)
			}
			return I64Value(x / y), nil
		case instr.DivU:
			if y == 0 {
				return Value{}, errors.DivideByZero(name)
			}
			return I64Value(int64(a.U64() / b.U64())), nil
		case instr.RemS:
			if y == 0 {
				return Value{}, errors.DivideByZero(name)
			}
			return I64Value(x % y), nil
		case instr.RemU:
			if y == 0 {
				return Value{}, errors.DivideByZero(name)
			}
			return I64Value(int64(a.U64() % b.U64())), nil
		}
		return Value{}, errors.Unreachable("arithmetic " + name)
	}

	x, y := a.I32(), b.I32()
	switch op {
	case instr.Add:
		return I32Value(x + y), nil
	case instr.Sub:
		return I32Value(x - y), nil
	case instr.Mul:
		return I32Value(x * y), nil
	case instr.DivS:
		if y == 0 {
			return Value{}, errors.DivideByZero(name)
		}
		return I32Value(x / y), nil
	case instr.DivU:
		if y == 0 {
			return Value{}, errors.DivideByZero(name)
		}
		return I32Value(int32(a.U32() / b.U32())), nil
	case instr.RemS:
		if y == 0 {
			return Value{}, errors.DivideByZero(name)
		}
		return I32Value(x % y), nil
	case instr.RemU:
		if y == 0 {
			return Value{}, errors.DivideByZero(name)
		}
		return I32Value(int32(a.U32() % b.U32())), nil
	}
	return Value{}, errors.Unreachable("arithmetic " + name)
}

// Float instruction text only carries add/sub/mul/div; the signed division
// tag stands in for plain division.
func evalFloatArithmetic(op instr.ArithmeticOp, t instr.ValType, a, b Value, name string) (Value, error) {
	if t == instr.F64 {
		x, y := a.F64(), b.F64()
		switch op {
		case instr.Add:
			return F64Value(x + y), nil
		case instr.Sub:
			return F64Value(x - y), nil
		case instr.Mul:
			return F64Value(x * y), nil
		case instr.DivS:
			return F64Value(x / y), nil
		}
		return Value{}, errors.Unreachable("float arithmetic " + name)
	}
	x, y := a.F32(), b.F32()
	switch op {
	case instr.Add:
		return F32Value(x + y), nil
	case instr.Sub:
		return F32Value(x - y), nil
	case instr.Mul:
		return F32Value(x * y), nil
	case instr.DivS:
		return F32Value(x / y), nil
	}
	return Value{}, errors.Unreachable("float arithmetic " + name)
}

func evalBitwise(op instr.BitwiseOp, wide bool, a, b Value) (Value, error) {
	t := instr.I32
	if wide {
		t = instr.I64
	}
	if err := checkOperands(t, a, b); err != nil {
		return Value{}, err
	}

	width := uint64(32)
	if wide {
		width = 64
	}
	mask := width - 1
	x, y := a.U64(), b.U64()

	var r uint64
	switch op {
	case instr.Clz:
		r = countLeadingZeros(x, wide)
	case instr.Ctz:
		r = countTrailingZeros(x, width)
	case instr.Popcnt:
		r = popCount(x, width)
	case instr.And:
		r = x & y
	case instr.Or:
		r = x | y
	case instr.Xor:
		r = x ^ y
	case instr.Shl:
		r = x << (y & mask)
	case instr.ShrS:
		if wide {
			r = uint64(a.I64() >> (y & mask))
		} else {
			r = uint64(uint32(a.I32() >> (y & mask)))
		}
	case instr.ShrU:
		r = x >> (y & mask)
	case instr.Rotl:
		n := y & mask
		r = x<<n | x>>((width-n)&mask)
	case instr.Rotr:
		n := y & mask
		r = x>>n | x<<((width-n)&mask)
	default:
		return Value{}, errors.Unreachable("bitwise " + op.String())
	}

	if !wide {
		return I32Value(int32(uint32(r))), nil
	}
	return I64Value(int64(r)), nil
}

// countLeadingZeros composes the 64-bit count from two native 32-bit counts.
func countLeadingZeros(x uint64, wide bool) uint64 {
	if !wide {
		return uint64(bits.LeadingZeros32(uint32(x)))
	}
	if hi := uint32(x >> 32); hi != 0 {
		return uint64(bits.LeadingZeros32(hi))
	}
	return 32 + uint64(bits.LeadingZeros32(uint32(x)))
}

func countTrailingZeros(x, width uint64) uint64 {
	for i := uint64(0); i < width; i++ {
		if x&(1<<i) != 0 {
			return i
		}
	}
	return width
}

func popCount(x, width uint64) uint64 {
	var n uint64
	for i := uint64(0); i < width; i++ {
		if x&(1<<i) != 0 {
			n++
		}
	}
	return n
}

func evalComparison(op instr.ComparisonOp, t instr.ValType, a, b Value) (Value, error) {
	if op.IsUnary() {
		if err := checkOperands(t, a, Zero(t)); err != nil {
			return Value{}, err
		}
		return comparisonResult(t, a.IsZero()), nil
	}
	if err := checkOperands(t, a, b); err != nil {
		return Value{}, err
	}

	var r bool
	switch {
	case t.IsFloat():
		// Float comparisons have no signedness; both tags compare
		// numerically.
		var x, y float64
		if t == instr.F64 {
			x, y = a.F64(), b.F64()
		} else {
			x, y = float64(a.F32()), float64(b.F32())
		}
		switch op {
		case instr.Eq:
			r = x == y
		case instr.Ne:
			r = x != y
		case instr.LtS, instr.LtU:
			r = x < y
		case instr.GtS, instr.GtU:
			r = x > y
		case instr.LeS, instr.LeU:
			r = x <= y
		case instr.GeS, instr.GeU:
			r = x >= y
		default:
			return Value{}, errors.Unreachable("comparison " + op.String())
		}

	case t == instr.I64:
		x, y := a.I64(), b.I64()
		u, w := a.U64(), b.U64()
		switch op {
		case instr.Eq:
			r = x == y
		case instr.Ne:
			r = x != y
		case instr.LtS:
			r = x < y
		case instr.LtU:
			r = u < w
		case instr.GtS:
			r = x > y
		case instr.GtU:
			r = u > w
		case instr.LeS:
			r = x <= y
		case instr.LeU:
			r = u <= w
		case instr.GeS:
			r = x >= y
		case instr.GeU:
			r = u >= w
		default:
			return Value{}, errors.Unreachable("comparison " + op.String())
		}

	default:
		x, y := a.I32(), b.I32()
		u, w := a.U32(), b.U32()
		switch op {
		case instr.Eq:
			r = x == y
		case instr.Ne:
			r = x != y
		case instr.LtS:
			r = x < y
		case instr.LtU:
			r = u < w
		case instr.GtS:
			r = x > y
		case instr.GtU:
			r = u > w
		case instr.LeS:
			r = x <= y
		case instr.LeU:
			r = u <= w
		case instr.GeS:
			r = x >= y
		case instr.GeU:
			r = u >= w
		default:
			return Value{}, errors.Unreachable("comparison " + op.String())
		}
	}
	return comparisonResult(t, r), nil
}

// comparisonResult encodes a boolean as 1/0 in the operand's integer
// representation.
func comparisonResult(t instr.ValType, truth bool) Value {
	var bit uint64
	if truth {
		bit = 1
	}
	return Value{Type: t.IntType(), Bits: bit}
}

func evalFloat(op instr.FloatOp, wide bool, a, b Value) (Value, error) {
	t := instr.F32
	if wide {
		t = instr.F64
	}
	if op.IsUnary() {
		b = Zero(t)
	}
	if err := checkOperands(t, a, b); err != nil {
		return Value{}, err
	}

	var x, y float64
	if wide {
		x, y = a.F64(), b.F64()
	} else {
		x, y = float64(a.F32()), float64(b.F32())
	}

	var r float64
	switch op {
	case instr.Abs:
		r = math.Abs(x)
	case instr.Neg:
		r = -x
	case instr.Ceil:
		r = math.Ceil(x)
	case instr.Floor:
		r = math.Floor(x)
	case instr.Trunc:
		r = math.Trunc(x)
	case instr.Nearest:
		r = math.RoundToEven(x)
	case instr.Sqrt:
		r = math.Sqrt(x)
	case instr.Min:
		r = math.Min(x, y)
	case instr.Max:
		r = math.Max(x, y)
	case instr.Copysign:
		r = math.Copysign(x, y)
	default:
		return Value{}, errors.Unreachable("float " + op.String())
	}

	if wide {
		return F64Value(r), nil
	}
	return F32Value(float32(r)), nil
}

// checkOperands rejects operands whose representation disagrees with the
// instruction's.
func checkOperands(t instr.ValType, a, b Value) error {
	if a.Type != t {
		return errors.TypeMismatch(t.String(), a.Type.String())
	}
	if b.Type != t {
		return errors.TypeMismatch(t.String(), b.Type.String())
	}
	return nil
}
