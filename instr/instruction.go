package instr

import (
	"math"
	"strconv"
	"strings"
)

// Instruction is the tagged union of everything the engine can execute.
// Implementations are exactly the structs below; the step evaluator
// exhaustively type-switches over them and treats anything else as
// unimplemented.
type Instruction interface {
	// String renders the instruction in text-format notation; it is used
	// for action text and error messages.
	String() string

	isInstruction()
}

// Param is a possibly named slot in a signature or locals declaration.
type Param struct {
	Name string  `json:"name,omitempty"`
	Type ValType `json:"type"`
}

// Signature describes a block's or callee's inputs and outputs. Name is the
// optional type-use index from the source text.
type Signature struct {
	Name    string    `json:"name,omitempty"`
	Params  []Param   `json:"params,omitempty"`
	Results []ValType `json:"results,omitempty"`
}

// Simple is a niladic instruction: unreachable, nop, drop or return.
type Simple struct {
	Op SimpleOp
}

// BlockStart opens, splits or closes a structured control region. Sig is
// nil for else/end markers.
type BlockStart struct {
	Kind  BlockKind
	Label string
	Sig   *Signature
}

// Branch jumps to a labeled enclosing block. A non-empty Table makes it a
// branch table, which the engine reports as unimplemented.
type Branch struct {
	Default     string
	Table       []string
	Conditional bool
}

// Call invokes another function; cross-function calls are out of scope and
// always error.
type Call struct {
	Target string
	Sig    Signature
}

// Data reads or writes a local, global, or memory size.
type Data struct {
	Op       DataOp
	Location string
}

// MemoryAccess is a linear-memory load or store; recognized but never
// executed.
type MemoryAccess struct {
	Location string
	Type     ValType
	Width    ByteWidth
	Offset   uint32
	Align    ByteWidth
	Store    bool
}

// Const pushes a decoded literal.
type Const struct {
	Type  ValType
	Value Literal
}

// Comparison compares one or two operands of the given representation.
type Comparison struct {
	Op   ComparisonOp
	Type ValType
}

// Arithmetic combines two operands of the given representation.
type Arithmetic struct {
	Op   ArithmeticOp
	Type ValType
}

// Bitwise is an integer bit operation; Wide selects the 64-bit family.
type Bitwise struct {
	Op   BitwiseOp
	Wide bool
}

// Float is a float-only operation; Wide selects the 64-bit family.
type Float struct {
	Op   FloatOp
	Wide bool
}

// Conversion changes a value's representation.
type Conversion struct {
	Op ConversionOp
}

// Unknown carries the source text of an instruction the compiler recognized
// but could not classify. Executing it is an unimplemented error.
type Unknown struct {
	Text string
}

func (*Simple) isInstruction()       {}
func (*BlockStart) isInstruction()   {}
func (*Branch) isInstruction()       {}
func (*Call) isInstruction()         {}
func (*Data) isInstruction()         {}
func (*MemoryAccess) isInstruction() {}
func (*Const) isInstruction()        {}
func (*Comparison) isInstruction()   {}
func (*Arithmetic) isInstruction()   {}
func (*Bitwise) isInstruction()      {}
func (*Float) isInstruction()        {}
func (*Conversion) isInstruction()   {}
func (*Unknown) isInstruction()      {}

func (i *Simple) String() string { return i.Op.String() }

func (i *BlockStart) String() string {
	if i.Label == "" {
		return i.Kind.String()
	}
	return i.Kind.String() + " " + formatLoc(i.Label)
}

func (i *Branch) String() string {
	switch {
	case len(i.Table) > 0:
		var b strings.Builder
		b.WriteString("br_table")
		for _, l := range i.Table {
			b.WriteByte(' ')
			b.WriteString(formatLoc(l))
		}
		b.WriteByte(' ')
		b.WriteString(formatLoc(i.Default))
		return b.String()
	case i.Conditional:
		return "br_if " + formatLoc(i.Default)
	default:
		return "br " + formatLoc(i.Default)
	}
}

func (i *Call) String() string { return "call " + formatLoc(i.Target) }

func (i *Data) String() string { return i.Op.String() + " " + formatLoc(i.Location) }

func (i *MemoryAccess) String() string {
	verb := ".load"
	if i.Store {
		verb = ".store"
	}
	s := i.Type.String() + verb
	if i.Width.Bits() < widthOf(i.Type).Bits() {
		s += strconv.Itoa(i.Width.Bits())
	}
	if i.Offset != 0 {
		s += " offset=" + strconv.FormatUint(uint64(i.Offset), 10)
	}
	return s
}

func (i *Const) String() string {
	return i.Type.String() + ".const " + i.Value.Render(i.Type)
}

func (i *Comparison) String() string { return i.Type.String() + "." + i.Op.String() }

func (i *Arithmetic) String() string { return i.Type.String() + "." + i.Op.String() }

func (i *Bitwise) String() string { return intName(i.Wide) + "." + i.Op.String() }

func (i *Float) String() string { return floatName(i.Wide) + "." + i.Op.String() }

func (i *Conversion) String() string { return i.Op.String() }

func (i *Unknown) String() string { return i.Text }

func intName(wide bool) string {
	if wide {
		return "i64"
	}
	return "i32"
}

func floatName(wide bool) string {
	if wide {
		return "f64"
	}
	return "f32"
}

func widthOf(t ValType) ByteWidth {
	if t.Is64Bit() {
		return Width64
	}
	return Width32
}

// formatLoc renders a location string: numeric indices as-is, names with
// the text-format $ sigil.
func formatLoc(loc string) string {
	if loc == "" {
		return loc
	}
	if _, err := strconv.ParseUint(loc, 10, 64); err == nil {
		return loc
	}
	return "$" + loc
}

// Convenience constructors used by tests and programmatic callers.

// ConstI32 builds an i32 constant instruction.
func ConstI32(v int32) *Const {
	return &Const{Type: I32, Value: Literal{Lo: uint32(v)}}
}

// ConstI64 builds an i64 constant instruction.
func ConstI64(v int64) *Const {
	return &Const{Type: I64, Value: LiteralFromBits(uint64(v))}
}

// ConstF32 builds an f32 constant instruction.
func ConstF32(v float32) *Const {
	return &Const{Type: F32, Value: Literal{Lo: math.Float32bits(v)}}
}

// ConstF64 builds an f64 constant instruction.
func ConstF64(v float64) *Const {
	return &Const{Type: F64, Value: LiteralFromBits(math.Float64bits(v))}
}
