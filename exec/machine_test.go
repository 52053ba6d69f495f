package exec

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wat-tracer/errors"

	"github.com/wippyai/wat-tracer/instr"
)

func singleFunc(f *instr.Func) *Machine {
	return NewMachineWithDefaults(&instr.Module{Funcs: []*instr.Func{f}})
}

func isKind(err error, kind errors.Kind) bool {
	return stderrors.Is(err, &errors.Error{Stage: errors.StageExecute, Kind: kind})
}

func TestRun_ConstAdd(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "add",
		Body: instr.Body{
			instr.ConstI32(1),
			instr.ConstI32(2),
			&instr.Arithmetic{Op: instr.Add, Type: instr.I32},
		},
	})

	trace, err := m.Run("add", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 3 {
		t.Fatalf("trace length = %d, want 3", len(trace))
	}

	last := trace[2]
	if len(last.After) != 1 || last.After[0].I32() != 3 {
		t.Errorf("final stack = %v, want [3]", last.After)
	}
	if want := "i32.add: 1 + 2 = 3"; last.Result.Action != want {
		t.Errorf("action = %q, want %q", last.Result.Action, want)
	}
	if len(last.Before) != 2 {
		t.Errorf("previous stack = %v, want two operands", last.Before)
	}
}

// Sequences of constants and operators behave as reverse-Polish evaluation
// with the later-pushed operand on the right.
func TestRun_ReversePolish(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "rpn",
		Body: instr.Body{
			instr.ConstI32(10),
			instr.ConstI32(4),
			&instr.Arithmetic{Op: instr.Sub, Type: instr.I32},
			instr.ConstI32(3),
			&instr.Arithmetic{Op: instr.Mul, Type: instr.I32},
			instr.ConstI32(17),
			&instr.Comparison{Op: instr.GtS, Type: instr.I32},
		},
	})

	trace, err := m.Run("rpn", nil)
	if err != nil {
		t.Fatal(err)
	}
	final := trace[len(trace)-1].After
	// (10 - 4) * 3 > 17
	if len(final) != 1 || final[0].I32() != 1 {
		t.Errorf("final stack = %v, want [1]", final)
	}
}

func TestRun_IfZeroTakesElse(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "pick",
		Body: instr.Body{
			instr.ConstI32(0),
			&instr.BlockStart{Kind: instr.KindIf, Label: "l"},
			instr.ConstI32(10),
			&instr.BlockStart{Kind: instr.KindElse},
			instr.ConstI32(20),
			&instr.BlockStart{Kind: instr.KindEnd},
		},
	})

	trace, err := m.Run("pick", nil)
	if err != nil {
		t.Fatal(err)
	}

	ifStep := trace[1]
	if ifStep.Result.Continuation.Kind != ContElse {
		t.Fatalf("if continuation = %s, want else", ifStep.Result.Continuation.Kind)
	}
	// Execution resumes at the first else-arm instruction: the then arm and
	// the else marker never appear in the trace.
	if trace[2].Result.Instruction.String() != "i32.const 20" {
		t.Errorf("step after if = %q, want the else arm", trace[2].Result.Instruction)
	}
	final := trace[len(trace)-1].After
	if len(final) != 1 || final[0].I32() != 20 {
		t.Errorf("final stack = %v, want [20]", final)
	}
}

func TestRun_IfNonZeroTakesThen(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "pick",
		Body: instr.Body{
			instr.ConstI32(7),
			&instr.BlockStart{Kind: instr.KindIf},
			instr.ConstI32(10),
			&instr.BlockStart{Kind: instr.KindElse},
			instr.ConstI32(20),
			&instr.BlockStart{Kind: instr.KindEnd},
		},
	})

	trace, err := m.Run("pick", nil)
	if err != nil {
		t.Fatal(err)
	}
	// const, if, then-arm const, else marker, end.
	if len(trace) != 5 {
		t.Fatalf("trace length = %d, want 5", len(trace))
	}
	if trace[3].Result.Continuation.Kind != ContEnd {
		t.Errorf("else marker continuation = %s, want end", trace[3].Result.Continuation.Kind)
	}
	final := trace[len(trace)-1].After
	if len(final) != 1 || final[0].I32() != 10 {
		t.Errorf("final stack = %v, want [10]", final)
	}
}

func TestRun_LoopRestartsOnBackwardBranch(t *testing.T) {
	f := &instr.Func{
		Name:   "count",
		Params: []instr.Param{{Name: "n", Type: instr.I32}},
		Body: instr.Body{
			&instr.BlockStart{Kind: instr.KindLoop, Label: "top"},
			&instr.Data{Op: instr.LocalGet, Location: "n"},
			instr.ConstI32(1),
			&instr.Arithmetic{Op: instr.Sub, Type: instr.I32},
			&instr.Data{Op: instr.LocalTee, Location: "n"},
			&instr.Branch{Default: "0", Conditional: true},
			&instr.BlockStart{Kind: instr.KindEnd},
		},
	}
	m := singleFunc(f)

	trace, err := m.Run("count", []Value{I32Value(2)})
	if err != nil {
		t.Fatal(err)
	}

	var loopSteps, taken, untaken int
	for _, e := range trace {
		switch e.Result.Instruction.(type) {
		case *instr.BlockStart:
			if e.Result.Instruction.(*instr.BlockStart).Kind == instr.KindLoop {
				loopSteps++
			}
		case *instr.Branch:
			if e.Result.Continuation.Kind == ContBranch {
				taken++
			} else {
				untaken++
			}
		}
	}
	if loopSteps != 2 {
		t.Errorf("loop start executed %d times, want 2 (initial entry plus one restart)", loopSteps)
	}
	if taken != 1 || untaken != 1 {
		t.Errorf("branches taken/untaken = %d/%d, want 1/1", taken, untaken)
	}
	// The counter drained to zero and the tee'd copy was consumed.
	last := trace[len(trace)-1]
	if len(last.After) != 0 {
		t.Errorf("final stack = %v, want empty", last.After)
	}
	if last.Result.Locals[0].I32() != 0 {
		t.Errorf("local n = %d, want 0", last.Result.Locals[0].I32())
	}
}

func TestRun_BlockExitBranch(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "skip",
		Body: instr.Body{
			&instr.BlockStart{Kind: instr.KindBlock, Label: "out"},
			&instr.Branch{Default: "out"},
			instr.ConstI32(99), // never reached
			&instr.BlockStart{Kind: instr.KindEnd},
		},
	})

	trace, err := m.Run("skip", nil)
	if err != nil {
		t.Fatal(err)
	}
	// block, br, end: the skipped constant never executes.
	if len(trace) != 3 {
		t.Fatalf("trace length = %d, want 3", len(trace))
	}
	if len(trace[len(trace)-1].After) != 0 {
		t.Errorf("final stack = %v, want empty", trace[len(trace)-1].After)
	}
}

func TestRun_UnresolvableLabel(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "bad",
		Body: instr.Body{
			&instr.BlockStart{Kind: instr.KindBlock, Label: "a"},
			&instr.Branch{Default: "missing"},
			&instr.BlockStart{Kind: instr.KindEnd},
		},
	})

	_, err := m.Run("bad", nil)
	if !isKind(err, errors.KindNameResolution) {
		t.Fatalf("error = %v, want name_resolution", err)
	}
}

func TestRun_AddOnEmptyStack(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "empty",
		Body: instr.Body{&instr.Arithmetic{Op: instr.Add, Type: instr.I32}},
	})

	s, err := m.Stepper("empty", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Next()
	if !isKind(err, errors.KindStackEmpty) {
		t.Fatalf("error = %v, want stack_empty", err)
	}
	if len(s.Stack()) != 0 {
		t.Errorf("stack = %v, want still empty", s.Stack())
	}
}

func TestRun_LocalMutation(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name:   "mutate",
		Locals: []instr.Param{{Name: "x", Type: instr.I32}},
		Body: instr.Body{
			instr.ConstI32(5),
			&instr.Data{Op: instr.LocalSet, Location: "x"},
			&instr.Data{Op: instr.LocalGet, Location: "x"},
		},
	})

	trace, err := m.Run("mutate", nil)
	if err != nil {
		t.Fatal(err)
	}
	last := trace[len(trace)-1]
	if len(last.After) != 1 || last.After[0].I32() != 5 {
		t.Errorf("final stack = %v, want [5]", last.After)
	}
	if last.Result.Locals[0].I32() != 5 {
		t.Errorf("locals[0] = %d, want 5", last.Result.Locals[0].I32())
	}
	if want := "local.get $x -> 5"; last.Result.Action != want {
		t.Errorf("action = %q, want %q", last.Result.Action, want)
	}
}

func TestRun_GlobalsPersistAcrossRuns(t *testing.T) {
	m := NewMachineWithDefaults(&instr.Module{
		Funcs: []*instr.Func{
			{
				Name: "bump",
				Body: instr.Body{
					&instr.Data{Op: instr.GlobalGet, Location: "g"},
					instr.ConstI32(1),
					&instr.Arithmetic{Op: instr.Add, Type: instr.I32},
					&instr.Data{Op: instr.GlobalSet, Location: "g"},
				},
			},
		},
		Globals: []instr.Global{{Name: "g", Type: instr.I32, Mutable: true, Init: instr.Literal{Lo: 40}}},
	})

	for i := 0; i < 2; i++ {
		if _, err := m.Run("bump", nil); err != nil {
			t.Fatal(err)
		}
	}
	if g, _ := m.Global("g"); g.I32() != 42 {
		t.Errorf("global g = %d, want 42", g.I32())
	}
}

func TestRun_ReturnStopsEarly(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "early",
		Body: instr.Body{
			instr.ConstI32(1),
			&instr.Simple{Op: instr.Return},
			instr.ConstI32(2),
		},
	})

	trace, err := m.Run("early", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Fatalf("trace length = %d, want 2", len(trace))
	}
	if got := trace[len(trace)-1].After; len(got) != 1 || got[0].I32() != 1 {
		t.Errorf("final stack = %v, want [1]", got)
	}
}

func TestRun_UnimplementedInstructions(t *testing.T) {
	tests := []struct {
		name string
		body instr.Body
	}{
		{"call", instr.Body{&instr.Call{Target: "other"}}},
		{"memory access", instr.Body{&instr.MemoryAccess{Location: "0", Type: instr.I32}}},
		{"memory size", instr.Body{&instr.Data{Op: instr.MemorySize, Location: "0"}}},
		{"branch table", instr.Body{instr.ConstI32(0), &instr.Branch{Default: "0", Table: []string{"a", "b"}}}},
		{"unknown", instr.Body{&instr.Unknown{Text: "v128.not"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := singleFunc(&instr.Func{Name: "f", Body: tt.body})
			_, err := m.Run("f", nil)
			if !isKind(err, errors.KindUnimplemented) {
				t.Errorf("error = %v, want unimplemented", err)
			}
		})
	}
}

func TestRun_Unreachable(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "trap",
		Body: instr.Body{&instr.Simple{Op: instr.Unreachable}},
	})
	_, err := m.Run("trap", nil)
	if !isKind(err, errors.KindUnreachable) {
		t.Fatalf("error = %v, want unreachable", err)
	}
}

func TestRun_ErrorCarriesStepContext(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "boom",
		Body: instr.Body{
			instr.ConstI32(1),
			instr.ConstI32(0),
			&instr.Arithmetic{Op: instr.DivS, Type: instr.I32},
		},
	})
	_, err := m.Run("boom", nil)
	if !isKind(err, errors.KindDivideByZero) {
		t.Fatalf("error = %v, want divide_by_zero", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "step 2") || !strings.Contains(msg, "i32.div_s") {
		t.Errorf("message %q lacks step index or instruction text", msg)
	}
}

func TestRun_MissingFunction(t *testing.T) {
	m := NewMachineWithDefaults(&instr.Module{})
	_, err := m.Run("nope", nil)
	if !isKind(err, errors.KindNotFound) {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestRun_ArgumentMismatch(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name:   "f",
		Params: []instr.Param{{Name: "a", Type: instr.I32}},
		Body:   instr.Body{&instr.Simple{Op: instr.Nop}},
	})
	if _, err := m.Run("f", nil); !isKind(err, errors.KindInvalidInput) {
		t.Errorf("arity error = %v, want invalid_input", err)
	}
	if _, err := m.Run("f", []Value{F64Value(1)}); !isKind(err, errors.KindTypeMismatch) {
		t.Errorf("type error = %v, want type_mismatch", err)
	}
}

func TestRun_StepBudget(t *testing.T) {
	m := NewMachine(&instr.Module{
		Funcs: []*instr.Func{{
			Name: "spin",
			Body: instr.Body{
				&instr.BlockStart{Kind: instr.KindLoop},
				&instr.Branch{Default: "0"},
				&instr.BlockStart{Kind: instr.KindEnd},
			},
		}},
	}, Options{MaxSteps: 16})

	_, err := m.Run("spin", nil)
	if !isKind(err, errors.KindInvalidInput) {
		t.Fatalf("error = %v, want the step budget error", err)
	}
}

func TestStepper_MatchesEagerRun(t *testing.T) {
	build := func() *Machine {
		return singleFunc(&instr.Func{
			Name: "f",
			Body: instr.Body{
				instr.ConstI32(6),
				instr.ConstI32(7),
				&instr.Arithmetic{Op: instr.Mul, Type: instr.I32},
				&instr.Simple{Op: instr.Drop},
			},
		})
	}

	eager, err := build().Run("f", nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := build().Stepper("f", nil)
	if err != nil {
		t.Fatal(err)
	}

	var lazy []TraceEntry
	for {
		e, err := s.Next()
		if err != nil {
			t.Fatal(err)
		}
		if e == nil {
			break
		}
		lazy = append(lazy, *e)
	}

	if len(lazy) != len(eager) {
		t.Fatalf("lazy produced %d entries, eager %d", len(lazy), len(eager))
	}
	for i := range eager {
		if lazy[i].Result.Action != eager[i].Result.Action {
			t.Errorf("entry %d: %q != %q", i, lazy[i].Result.Action, eager[i].Result.Action)
		}
	}
}

func TestTraceEntry_JSON(t *testing.T) {
	m := singleFunc(&instr.Func{
		Name: "f",
		Body: instr.Body{instr.ConstI32(1)},
	})
	trace, err := m.Run("f", nil)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(trace)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []struct {
		Action        string    `json:"action"`
		PreviousStack []float64 `json:"previous_stack"`
		CurrentStack  []float64 `json:"current_stack"`
		Locals        []float64 `json:"locals"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 {
		t.Fatalf("entries = %d, want 1", len(decoded))
	}
	e := decoded[0]
	if e.Action != "push i32 1" {
		t.Errorf("action = %q", e.Action)
	}
	if len(e.PreviousStack) != 0 || len(e.CurrentStack) != 1 || e.CurrentStack[0] != 1 {
		t.Errorf("stacks = %v -> %v", e.PreviousStack, e.CurrentStack)
	}
}
