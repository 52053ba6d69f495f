package exec

import (
	"fmt"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

// ContKind classifies a continuation directive: where the navigator should
// take control after a step.
type ContKind uint8

const (
	// ContNone falls through to the next array index.
	ContNone ContKind = iota
	// ContReturn terminates the run.
	ContReturn
	// ContElse jumps to the current conditional's else arm.
	ContElse
	// ContEnd jumps to the current conditional's end marker.
	ContEnd
	// ContBranch jumps to a labeled enclosing block.
	ContBranch
)

var contKindNames = []string{"none", "return", "else", "end", "branch"}

func (k ContKind) String() string {
	if int(k) < len(contKindNames) {
		return contKindNames[k]
	}
	return fmt.Sprintf("continuation(%d)", uint8(k))
}

// Continuation is a step's control-flow outcome. Label is only set for
// ContBranch and is numeric or symbolic.
type Continuation struct {
	Kind  ContKind
	Label string
}

// StepResult describes one executed instruction: its action text for
// display, the locals at the step boundary, and the continuation directive.
type StepResult struct {
	Instruction  instr.Instruction
	Action       string
	Locals       []Value
	Continuation Continuation
}

// frame is the mutable state of one run: the value stack and locals, plus
// the machine whose globals the body may touch.
type frame struct {
	stack   *Stack
	locals  *Table[Value]
	globals *Table[Value]
}

// eval executes exactly one instruction, mutating the stack and tables in
// place. The locals snapshot is taken after the mutation.
func (f *frame) eval(in instr.Instruction) (*StepResult, error) {
	res := &StepResult{Instruction: in, Action: in.String()}

	switch v := in.(type) {
	case *instr.Simple:
		switch v.Op {
		case instr.Unreachable:
			return nil, errors.Unreachable("unreachable instruction executed")
		case instr.Nop:
		case instr.Return:
			res.Continuation.Kind = ContReturn
		case instr.Drop:
			dropped, err := f.stack.Pop()
			if err != nil {
				return nil, err
			}
			res.Action = "drop " + dropped.String()
		default:
			return nil, errors.Unimplemented(in.String())
		}

	case *instr.BlockStart:
		switch v.Kind {
		case instr.KindIf:
			cond, err := f.stack.Pop()
			if err != nil {
				return nil, err
			}
			if cond.IsZero() {
				res.Continuation.Kind = ContElse
				res.Action = in.String() + ": " + cond.String() + ", enter else"
			} else {
				res.Action = in.String() + ": " + cond.String() + ", enter then"
			}
		case instr.KindElse:
			// Reached only when the then-arm ran; skip over the else arm.
			res.Continuation.Kind = ContEnd
		case instr.KindBlock, instr.KindLoop, instr.KindEnd:
		default:
			return nil, errors.Unimplemented(in.String())
		}

	case *instr.Branch:
		if len(v.Table) > 0 {
			return nil, errors.Unimplemented(in.String())
		}
		if v.Conditional {
			cond, err := f.stack.Pop()
			if err != nil {
				return nil, err
			}
			if cond.IsZero() {
				res.Action = in.String() + ": " + cond.String() + ", not taken"
				break
			}
			res.Action = in.String() + ": " + cond.String() + ", taken"
		}
		res.Continuation = Continuation{Kind: ContBranch, Label: v.Default}

	case *instr.Call:
		return nil, errors.Unimplemented(in.String())

	case *instr.Data:
		if err := f.evalData(v, res); err != nil {
			return nil, err
		}

	case *instr.MemoryAccess:
		return nil, errors.Unimplemented(in.String())

	case *instr.Const:
		val := FromLiteral(v.Type, v.Value)
		f.stack.Push(val)
		res.Action = "push " + v.Type.String() + " " + val.String()

	case *instr.Comparison:
		if err := f.evalBinary(res, v.Type, v.Op.IsUnary(), func(a, b Value) (Value, error) {
			return evalComparison(v.Op, v.Type, a, b)
		}); err != nil {
			return nil, err
		}

	case *instr.Arithmetic:
		a, b, err := f.stack.Pop2()
		if err != nil {
			return nil, err
		}
		r, err := evalArithmetic(v.Op, v.Type, a, b)
		if err != nil {
			return nil, err
		}
		f.stack.Push(r)
		res.Action = fmt.Sprintf("%s: %s %s %s = %s",
			in, a, arithmeticSymbol(v.Op), b, r)

	case *instr.Bitwise:
		t := instr.I32
		if v.Wide {
			t = instr.I64
		}
		if err := f.evalBinary(res, t, v.Op.IsUnary(), func(a, b Value) (Value, error) {
			return evalBitwise(v.Op, v.Wide, a, b)
		}); err != nil {
			return nil, err
		}

	case *instr.Float:
		t := instr.F32
		if v.Wide {
			t = instr.F64
		}
		if err := f.evalBinary(res, t, v.Op.IsUnary(), func(a, b Value) (Value, error) {
			return evalFloat(v.Op, v.Wide, a, b)
		}); err != nil {
			return nil, err
		}

	case *instr.Conversion:
		src, err := f.stack.Pop()
		if err != nil {
			return nil, err
		}
		r, err := convert(v.Op, src)
		if err != nil {
			return nil, err
		}
		f.stack.Push(r)
		res.Action = fmt.Sprintf("%s: %s -> %s", in, src, r)

	case *instr.Unknown:
		return nil, errors.Unimplemented(v.Text)

	default:
		return nil, errors.Unimplemented(in.String())
	}

	res.Locals = f.locals.Snapshot()
	return res, nil
}

// evalBinary pops operands per arity, applies the operation and pushes the
// result. Unary operations receive a zero-valued second operand.
func (f *frame) evalBinary(res *StepResult, t instr.ValType, unary bool, apply func(a, b Value) (Value, error)) error {
	var a, b Value
	var err error
	if unary {
		a, err = f.stack.Pop()
		b = Zero(t)
	} else {
		a, b, err = f.stack.Pop2()
	}
	if err != nil {
		return err
	}
	r, err := apply(a, b)
	if err != nil {
		return err
	}
	f.stack.Push(r)
	if unary {
		res.Action = fmt.Sprintf("%s: %s = %s", res.Instruction, a, r)
	} else {
		res.Action = fmt.Sprintf("%s: %s, %s = %s", res.Instruction, a, b, r)
	}
	return nil
}

func (f *frame) evalData(v *instr.Data, res *StepResult) error {
	switch v.Op {
	case instr.LocalGet:
		val, ok := f.locals.Get(v.Location)
		if !ok {
			return errors.NotFound(errors.SpaceLocal, v.Location)
		}
		f.stack.Push(val)
		res.Action = v.String() + " -> " + val.String()

	case instr.LocalSet, instr.LocalTee:
		val, err := f.stack.Pop()
		if err != nil {
			return err
		}
		if !f.locals.Set(v.Location, val) {
			f.stack.Push(val)
			return errors.NotFound(errors.SpaceLocal, v.Location)
		}
		if v.Op == instr.LocalTee {
			f.stack.Push(val)
		}
		res.Action = v.String() + " <- " + val.String()

	case instr.GlobalGet:
		val, ok := f.globals.Get(v.Location)
		if !ok {
			return errors.NotFound(errors.SpaceGlobal, v.Location)
		}
		f.stack.Push(val)
		res.Action = v.String() + " -> " + val.String()

	case instr.GlobalSet:
		val, err := f.stack.Pop()
		if err != nil {
			return err
		}
		if !f.globals.Set(v.Location, val) {
			f.stack.Push(val)
			return errors.NotFound(errors.SpaceGlobal, v.Location)
		}
		res.Action = v.String() + " <- " + val.String()

	default:
		return errors.Unimplemented(v.String())
	}
	return nil
}

func arithmeticSymbol(op instr.ArithmeticOp) string {
	switch op {
	case instr.Add:
		return "+"
	case instr.Sub:
		return "-"
	case instr.Mul:
		return "*"
	case instr.DivS, instr.DivU:
		return "/"
	default:
		return "%"
	}
}
