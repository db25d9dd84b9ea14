// Package errs defines the typed error kinds surfaced across the engine's
// public operations, so callers can branch on failure category instead of
// matching error strings.
package errs

import "fmt"

// Kind classifies an engine error.
type Kind int

const (
	// InvalidArgument covers empty content, unknown types, out-of-range
	// importance, and negative day counts.
	InvalidArgument Kind = iota
	// NotFound covers operations addressed at a missing memory id.
	NotFound
	// Conflict covers update_memory on an already-contradicted memory.
	Conflict
	// StorageUnavailable covers I/O or lock-acquisition failures. The
	// engine that produced it should be treated as degraded/read-only.
	StorageUnavailable
	// Corruption covers schema mismatches detected at open.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case StorageUnavailable:
		return "storage_unavailable"
	case Corruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// Error is a typed engine error. It wraps an underlying cause when one
// exists so %w unwrapping and errors.Is/As keep working.
type Error struct {
	Kind     Kind
	Op       string // operation that failed, e.g. "add", "recall"
	Message  string
	Cause    error
	sentinel bool // true for bare Kind-matching values from Sentinel()
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target shares this error's Kind, so callers can do
// errors.Is(err, errs.Sentinel(errs.NotFound)) style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.sentinel
}

// New constructs an *Error for the given kind/op/message, optionally
// wrapping cause.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Sentinel returns a bare *Error usable with errors.Is(err, Sentinel(Kind))
// to test an error's kind without caring about Op/Message/Cause.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind, sentinel: true}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
