// Package errors provides structured error types for the webbridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the member path, Go/script type names, the offending
// value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
//		Path("counter", "add", "0").
//		GoType("int").
//		ScriptType("string").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for the dispatch taxonomy:
//
//	err := errors.UnresolvedTarget(7)
//	err := errors.UnknownMember("greet", 0)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only, so sentinel values built with New(...).Build()
// can be used as match targets.
package errors
