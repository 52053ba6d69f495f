package exec

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wat-tracer/errors"
)

// TraceEntry is one step's snapshot: the step result plus deep copies of the
// stack taken immediately before and after the instruction ran.
type TraceEntry struct {
	Result StepResult
	Before []Value
	After  []Value
}

// MarshalJSON encodes the entry in the shape the visualization layer
// consumes.
func (e *TraceEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action        string  `json:"action"`
		PreviousStack []Value `json:"previous_stack"`
		CurrentStack  []Value `json:"current_stack"`
		Locals        []Value `json:"locals"`
	}{
		Action:        e.Result.Action,
		PreviousStack: e.Before,
		CurrentStack:  e.After,
		Locals:        e.Result.Locals,
	})
}

// Stepper pulls one trace entry at a time out of a run. Its position lives
// entirely in the navigator's cursor and block index, so a caller may stop
// consuming at any point. A Stepper is single-use and not safe for
// concurrent use.
type Stepper struct {
	frame    *frame
	nav      *navigator
	log      *zap.Logger
	steps    int
	maxSteps int
	failed   bool
}

// Next executes one instruction and returns its trace entry. It returns
// (nil, nil) when the run has completed. Any error is terminal: the run
// cannot continue past a corrupted stack.
func (s *Stepper) Next() (*TraceEntry, error) {
	if s.failed {
		return nil, errors.Unreachable("stepping a failed run")
	}

	idx := s.nav.sync()
	if idx < 0 {
		return nil, nil
	}
	if s.maxSteps > 0 && s.steps >= s.maxSteps {
		s.failed = true
		return nil, errors.New(errors.StageExecute, errors.KindInvalidInput).
			Detail("step budget of %d exhausted; possible non-terminating loop", s.maxSteps).
			Build()
	}

	in := s.nav.tree.Array[idx]
	before := s.frame.stack.Snapshot()

	res, err := s.frame.eval(in)
	if err != nil {
		s.failed = true
		return nil, errors.Annotate(err, fmt.Sprintf("step %d: %s", s.steps, in))
	}
	if err := s.nav.apply(res.Continuation); err != nil {
		s.failed = true
		return nil, errors.Annotate(err, fmt.Sprintf("step %d: %s", s.steps, in))
	}

	s.steps++
	s.log.Debug("step",
		zap.Int("index", idx),
		zap.Stringer("instruction", in),
		zap.String("action", res.Action),
		zap.Stringer("continuation", res.Continuation.Kind),
		zap.Int("stack", s.frame.stack.Len()))

	return &TraceEntry{
		Result: *res,
		Before: before,
		After:  s.frame.stack.Snapshot(),
	}, nil
}

// Steps returns how many instructions have executed so far.
func (s *Stepper) Steps() int { return s.steps }

// Stack returns a copy of the run's current stack.
func (s *Stepper) Stack() []Value { return s.frame.stack.Snapshot() }

// Locals returns a copy of the run's current locals.
func (s *Stepper) Locals() []Value { return s.frame.locals.Snapshot() }

// drain runs the stepper to completion, collecting every entry.
func (s *Stepper) drain() ([]TraceEntry, error) {
	var trace []TraceEntry
	for {
		entry, err := s.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return trace, nil
		}
		trace = append(trace, *entry)
	}
}
