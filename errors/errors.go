package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // class registration
	PhaseLifecycle Phase = "lifecycle" // create / recreate / free / refcount
	PhaseBorrow    Phase = "borrow"    // instance storage access
	PhaseDispatch  Phase = "dispatch"  // virtual lookup and call thunks
	PhaseProperty  Phase = "property"  // property bridge
	PhaseMarshal   Phase = "marshal"   // host value <-> Go value
	PhaseHost      Phase = "host"      // host interface / host adapters
	PhaseConfig    Phase = "config"    // manifest loading
)

// Kind categorizes the error
type Kind string

const (
	KindContractViolation Kind = "contract_violation"
	KindBorrowConflict    Kind = "borrow_conflict"
	KindDestroyed         Kind = "destroyed"
	KindHashMismatch      Kind = "hash_mismatch"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOverflow          Kind = "overflow"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindRegistration      Kind = "registration"
	KindUnsupported       Kind = "unsupported"
	KindIncompatible      Kind = "incompatible"
	KindUserFailure       Kind = "user_failure"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Class    string
	GoType   string
	HostType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Class != "" {
		b.WriteString(" in ")
		b.WriteString(e.Class)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.HostType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.HostType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", host type ")
			b.WriteString(e.HostType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.HostType != "" {
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

// Fatal reports whether the error is a contract violation, i.e. host and
// extension disagree about the state of the world.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindContractViolation, KindBorrowConflict, KindDestroyed:
		return true
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the extension class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// HostType sets the host-side type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
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

// Convenience constructors for common error patterns

// ContractViolation creates an error for host/extension desynchronization.
func ContractViolation(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindContractViolation).Detail(detail, args...).Build()
}

// BorrowConflict creates an error for overlapping instance borrows
func BorrowConflict(class string, detail string) *Error {
	return &Error{
		Phase:  PhaseBorrow,
		Kind:   KindBorrowConflict,
		Class:  class,
		Detail: detail,
	}
}

// Destroyed creates an error for access to a record that is being or has been freed
func Destroyed(class string, state string) *Error {
	return &Error{
		Phase:  PhaseBorrow,
		Kind:   KindDestroyed,
		Class:  class,
		Detail: fmt.Sprintf("instance accessed in state %s", state),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		HostType: hostType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		HostType: targetType,
		Detail:   fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:    value,
	}
}

// NotFound creates a lookup failure error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
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

// Registration creates a class registration error
func Registration(class string, detail string, args ...any) *Error {
	return New(PhaseRegister, KindRegistration).Class(class).Detail(detail, args...).Build()
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// UserFailure wraps a failure raised by extension code inside a callback.
func UserFailure(phase Phase, class, callback string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUserFailure,
		Class:  class,
		Path:   []string{callback},
		Cause:  cause,
		Detail: "extension code failed",
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

// IsFatal reports whether err carries a contract violation anywhere in its chain.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal()
	}
	return false
}

// FromPanic converts a recovered panic value into an error.
func FromPanic(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}

// As is errors.As from the standard library, re-exported so callers need
// only this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}
