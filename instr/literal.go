package instr

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Literal is the wire encoding of a numeric constant: two little-endian
// 32-bit halves. 32-bit values occupy Lo with Hi zero; 64-bit values span
// both. The typed accessors concatenate the halves into an 8-byte buffer
// and read it back per the declared representation.
type Literal struct {
	Lo uint32 `json:"lo"`
	Hi uint32 `json:"hi,omitempty"`
}

// LiteralFromBits splits a raw 64-bit pattern into the two halves.
func LiteralFromBits(bits uint64) Literal {
	return Literal{Lo: uint32(bits), Hi: uint32(bits >> 32)}
}

// Bits reconstructs the full 64-bit pattern.
func (l Literal) Bits() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], l.Lo)
	binary.LittleEndian.PutUint32(buf[4:8], l.Hi)
	return binary.LittleEndian.Uint64(buf[:])
}

// I32 reads the low bytes as a 32-bit integer.
func (l Literal) I32() int32 { return int32(l.Lo) }

// I64 reads the full buffer as a 64-bit integer.
func (l Literal) I64() int64 { return int64(l.Bits()) }

// F32 reads the low bytes as an IEEE 754 single.
func (l Literal) F32() float32 { return math.Float32frombits(l.Lo) }

// F64 reads the full buffer as an IEEE 754 double.
func (l Literal) F64() float64 { return math.Float64frombits(l.Bits()) }

// Render formats the literal per the given representation, for action text
// and instruction display.
func (l Literal) Render(t ValType) string {
	switch t {
	case I32:
		return strconv.FormatInt(int64(l.I32()), 10)
	case I64:
		return strconv.FormatInt(l.I64(), 10)
	case F32:
		return strconv.FormatFloat(float64(l.F32()), 'g', -1, 32)
	case F64:
		return strconv.FormatFloat(l.F64(), 'g', -1, 64)
	default:
		return "0x" + strconv.FormatUint(l.Bits(), 16)
	}
}
