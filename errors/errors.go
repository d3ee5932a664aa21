package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in an object's lifecycle the error occurred
type Phase string

const (
	PhaseAlloc     Phase = "alloc"     // reserving or freeing storage
	PhaseConstruct Phase = "construct" // building the managed object
	PhaseSelf      Phase = "self"      // self-reference lookup
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation   Kind = "allocation"
	KindExhausted    Kind = "exhausted"
	KindConstruction Kind = "construction"
	KindNoOwner      Kind = "no_owner"
	KindInvalidInput Kind = "invalid_input"
	KindOutOfBounds  Kind = "out_of_bounds"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrNoOwner   = &Error{Phase: PhaseSelf, Kind: KindNoOwner}
	ErrExhausted = &Error{Phase: PhaseAlloc, Kind: KindExhausted}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// Exhausted reports an allocator that has no room left for a request.
func Exhausted(size, align uint32, capacity uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("no room for %d bytes (align %d), capacity %d", size, align, capacity),
		Value:  size,
	}
}

// ConstructionFailed wraps an error returned while initializing a managed object
func ConstructionFailed(goType string, cause error) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindConstruction,
		GoType: goType,
		Detail: "initializer failed",
		Cause:  cause,
	}
}

// NoOwner creates the error returned when an object asks for a strong
// reference to itself while no strong reference exists
func NoOwner(goType string) *Error {
	return &Error{
		Phase:  PhaseSelf,
		Kind:   KindNoOwner,
		GoType: goType,
		Detail: "object is not owned by any shared handle",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) exceeds limit %d", offset, offset+length, limit),
		Value:  offset,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
