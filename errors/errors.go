package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBind     Phase = "bind"     // channel binding
	PhaseDispatch Phase = "dispatch" // inbound message handling
	PhaseDecode   Phase = "decode"   // message payload decoding
	PhaseGenerate Phase = "generate" // stub generation
	PhaseReflect  Phase = "reflect"  // type descriptor construction
	PhaseInvoke   Phase = "invoke"   // property access and method calls
	PhaseHost     Phase = "host"     // host endpoint operations
	PhaseLoad     Phase = "load"     // document and module loading
)

// Kind categorizes the error
type Kind string

const (
	KindEmptyPayload     Kind = "empty_payload"
	KindMalformed        Kind = "malformed"
	KindUnresolvedTarget Kind = "unresolved_target"
	KindUnknownMember    Kind = "unknown_member"
	KindPrecondition     Kind = "precondition"
	KindHostUnavailable  Kind = "host_unavailable"
	KindTypeMismatch     Kind = "type_mismatch"
	KindOverflow         Kind = "overflow"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindReadOnly         Kind = "read_only"
	KindInstantiation    Kind = "instantiation"
	KindRegistration     Kind = "registration"
	KindUnsupported      Kind = "unsupported"
	KindScript           Kind = "script"
	KindPanic            Kind = "panic"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	ScriptType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.ScriptType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.ScriptType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", script type ")
			b.WriteString(e.ScriptType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("script type ")
			b.WriteString(e.ScriptType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ScriptType != "" {
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

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ScriptType sets the script-side type name
func (b *Builder) ScriptType(t string) *Builder {
	b.err.ScriptType = t
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

// KindOf returns the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

// Dispatch taxonomy

// EmptyPayload reports a zero-length or absent message body.
func EmptyPayload() *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindEmptyPayload,
		Detail: "empty message payload",
	}
}

// Malformed reports a message whose shape does not match the protocol.
func Malformed(phase Phase, detail string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformed,
		Detail: detail,
		Value:  value,
	}
}

// UnresolvedTarget reports a target id missing from the instance registry.
func UnresolvedTarget(target int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnresolvedTarget,
		Detail: fmt.Sprintf("no instance with id %d", target),
		Value:  target,
	}
}

// UnknownMember reports an opcode that names no member of the type descriptor.
func UnknownMember(opcode string, target int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnknownMember,
		Path:   []string{opcode},
		Detail: fmt.Sprintf("invalid member for instance %d", target),
		Value:  opcode,
	}
}

// Precondition reports an operation attempted in the wrong lifecycle state.
func Precondition(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPrecondition,
		Detail: detail,
	}
}

// HostUnavailable reports that the host endpoint reference has expired.
func HostUnavailable(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHostUnavailable,
		Detail: "host endpoint is gone",
	}
}

// Value conversion

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, scriptType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		ScriptType: scriptType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: goType,
		Detail: fmt.Sprintf("value %v overflows %s", value, goType),
		Value:  value,
	}
}

// ReadOnly reports a write to a property that has no setter.
func ReadOnly(path []string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindReadOnly,
		Path:   path,
		Detail: "property is not settable",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
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

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Registration creates a registration error
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %q", name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInstantiation,
		Detail: fmt.Sprintf("instantiate %s", what),
		Cause:  cause,
	}
}

// Script wraps an exception raised by the script engine.
func Script(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindScript,
		Detail: "script raised an exception",
		Cause:  cause,
	}
}

// Panic converts a recovered panic value into an error.
func Panic(phase Phase, path []string, recovered any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPanic,
		Path:   path,
		Detail: fmt.Sprintf("%v", recovered),
		Value:  recovered,
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
