package exec

import "github.com/wippyai/wat-tracer/errors"

// Stack is the run's value stack. Pops verify depth before mutating, so a
// failed pop never leaves the stack partially consumed.
type Stack struct {
	values []Value
}

// Push appends a value.
func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value. An empty stack is a StackEmpty
// error.
func (s *Stack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, errors.StackEmpty(1)
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Pop2 removes the top two values, returning them in push order: first is
// the value pushed earlier, second the more recent. Zero available values is
// StackEmpty; one is StackUnderflow, and the remaining value stays on the
// stack.
func (s *Stack) Pop2() (first, second Value, err error) {
	switch len(s.values) {
	case 0:
		return Value{}, Value{}, errors.StackEmpty(2)
	case 1:
		return Value{}, Value{}, errors.StackUnderflow(2, 1)
	}
	second = s.values[len(s.values)-1]
	first = s.values[len(s.values)-2]
	s.values = s.values[:len(s.values)-2]
	return first, second, nil
}

// Len returns the current depth.
func (s *Stack) Len() int { return len(s.values) }

// Snapshot returns a copy of the stack, bottom first.
func (s *Stack) Snapshot() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}
