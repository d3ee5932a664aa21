// Package errors provides structured error types for the sharedptr module.
//
// Errors are categorized by Phase (where in an object's lifecycle the error
// occurred) and Kind (error category). Matching with errors.Is compares Phase
// and Kind, so the package sentinels match any error of the same category:
//
//	p, err := self.SharedFromSelf()
//	if errors.Is(err, errors.ErrNoOwner) {
//		// object was never adopted, or its last owner is gone
//	}
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
//		GoType("*pool.Slot").
//		Detail("alignment %d is not a power of two", align).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(errors.PhaseAlloc, 64, 8)
//	err := errors.ConstructionFailed("*app.Conn", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
