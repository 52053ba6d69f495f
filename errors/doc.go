// Package errors provides structured error types for the wat-tracer library.
//
// Errors are categorized by Stage (where the error occurred) and Kind (error
// category). Every error produced by the engine is terminal: execution stops
// at the first error and no partial recovery is attempted.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.StageExecute, errors.KindTypeMismatch).
//		Where("i32.add").
//		Detail("left operand is i32, right operand is f64").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StackUnderflow(2, 1)
//	err := errors.NotFound(errors.SpaceLocal, "$x")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
