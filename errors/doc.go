// Package errors provides structured error types for the class bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: class name, path, Go/host type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
//		Class("Player").
//		Path("_process", "arg0").
//		GoType("float64").
//		HostType("String").
//		Build()
//
// Three categories matter at the ABI boundary:
//
//   - Contract violations (KindContractViolation, KindBorrowConflict,
//     KindDestroyed) mean host and extension are out of sync. They are raised
//     as panics and end the process at the boundary. Error.Fatal reports them.
//   - Expected negative outcomes (property not found, no override) are never
//     errors; callbacks return nil or false.
//   - KindUserFailure wraps panics and errors coming out of extension code.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
