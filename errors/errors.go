package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Stage indicates where in processing the error occurred
type Stage string

const (
	StageDecode  Stage = "decode"  // deserializing the compiler payload
	StageBuild   Stage = "build"   // block tree construction
	StageExecute Stage = "execute" // instruction execution
)

// Kind categorizes the error
type Kind string

const (
	KindStackEmpty       Kind = "stack_empty"
	KindStackUnderflow   Kind = "stack_underflow"
	KindTypeMismatch     Kind = "type_mismatch"
	KindNotFound         Kind = "not_found"
	KindNameResolution   Kind = "name_resolution"
	KindUnreachable      Kind = "unreachable"
	KindUnimplemented    Kind = "unimplemented"
	KindDivideByZero     Kind = "divide_by_zero"
	KindInvalidStructure Kind = "invalid_structure"
	KindInvalidInput     Kind = "invalid_input"
)

// Space identifies the index space a failed lookup targeted
type Space string

const (
	SpaceLocal    Space = "local"
	SpaceGlobal   Space = "global"
	SpaceMemory   Space = "memory"
	SpaceFunction Space = "function"
)

// Span is a byte range in the original source text, passed through from the
// front-end compiler. The engine itself never produces spans.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Error is the structured error type used throughout the tracer
type Error struct {
	Cause  error
	Span   *Span
	Stage  Stage
	Kind   Kind
	Where  string // variable location, branch label, or instruction text
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Stage))
	if e.Span != nil {
		fmt.Fprintf(&b, "@%d-%d", e.Span.Start, e.Span.End)
	}
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Where != "" {
		b.WriteString(" at ")
		b.WriteString(e.Where)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Stage == t.Stage && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(stage Stage, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Stage: stage,
			Kind:  kind,
		},
	}
}

// Where sets the location context: a variable name, branch label, or
// instruction text
func (b *Builder) Where(where string) *Builder {
	b.err.Where = where
	return b
}

// Span sets the pass-through source span
func (b *Builder) Span(start, end int) *Builder {
	b.err.Span = &Span{Start: start, End: end}
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// StackEmpty creates an error for a pop against an empty stack
func StackEmpty(need int) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindStackEmpty,
		Detail: fmt.Sprintf("need %d value(s), stack is empty", need),
	}
}

// StackUnderflow creates an error for a pop that found some values but
// fewer than required
func StackUnderflow(expected, actual int) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindStackUnderflow,
		Detail: fmt.Sprintf("expected %d value(s) on the stack, have %d", expected, actual),
	}
}

// TypeMismatch creates an error for disagreeing operand representations
func TypeMismatch(expected, actual string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindTypeMismatch,
		Detail: fmt.Sprintf("expected %s, got %s", expected, actual),
	}
}

// NotFound creates an error for an unresolved variable reference
func NotFound(space Space, location string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindNotFound,
		Where:  location,
		Detail: fmt.Sprintf("no %s named or numbered %q", space, location),
	}
}

// NameResolution creates an error for a branch label that matches no
// enclosing block
func NameResolution(label string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindNameResolution,
		Where:  label,
		Detail: fmt.Sprintf("no enclosing block labeled %q", label),
	}
}

// Unreachable creates an error for an executed unreachable instruction or a
// defensive fallback
func Unreachable(detail string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindUnreachable,
		Detail: detail,
	}
}

// Unimplemented creates an error for a recognized but unexecuted instruction
func Unimplemented(what string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindUnimplemented,
		Detail: what,
	}
}

// DivideByZero creates an integer division trap error
func DivideByZero(op string) *Error {
	return &Error{
		Stage:  StageExecute,
		Kind:   KindDivideByZero,
		Where:  op,
		Detail: "integer divide by zero",
	}
}

// InvalidStructure creates a block nesting error during tree construction
func InvalidStructure(detail string) *Error {
	return &Error{
		Stage:  StageBuild,
		Kind:   KindInvalidStructure,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(stage Stage, kind Kind, cause error, detail string) *Error {
	return &Error{
		Stage:  stage,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Annotate wraps cause with step context while preserving its Stage and
// Kind, so errors.Is matching still sees the original category.
func Annotate(cause error, detail string) *Error {
	e := &Error{
		Stage:  StageExecute,
		Kind:   KindUnimplemented,
		Detail: detail,
		Cause:  cause,
	}
	var inner *Error
	if stderrors.As(cause, &inner) {
		e.Stage = inner.Stage
		e.Kind = inner.Kind
		e.Span = inner.Span
	}
	return e
}
