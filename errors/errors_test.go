package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseInvoke,
				Kind:       KindTypeMismatch,
				Path:       []string{"counter", "add", "0"},
				GoType:     "int",
				ScriptType: "string",
				Detail:     "cannot convert",
			},
			contains: []string{"[invoke]", "type_mismatch", "counter.add.0", "int", "string", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindEmptyPayload,
			},
			contains: []string{"[decode]", "empty_payload"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseHost,
				Kind:   KindRegistration,
				Detail: "handler taken",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[host]", "registration", "handler taken", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseInvoke,
		Kind:  KindPanic,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := UnknownMember("greet", 3)

	if !err.Is(&Error{Phase: PhaseDispatch, Kind: KindUnknownMember}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBind, Kind: KindUnknownMember}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDispatch, Kind: KindMalformed}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("context: %w", err)
	if !errors.Is(wrapped, New(PhaseDispatch, KindUnknownMember).Build()) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseInvoke, KindTypeMismatch).
		Path("user", "name").
		GoType("string").
		ScriptType("number").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "number").
		Build()

	if err.Phase != PhaseInvoke {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseInvoke)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.GoType != "string" || err.ScriptType != "number" {
		t.Errorf("GoType=%v ScriptType=%v", err.GoType, err.ScriptType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got number" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestKindOf(t *testing.T) {
	if k, ok := KindOf(fmt.Errorf("wrap: %w", UnresolvedTarget(4))); !ok || k != KindUnresolvedTarget {
		t.Errorf("KindOf = %v, %v", k, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should not classify plain errors")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf(nil) should report false")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"EmptyPayload", EmptyPayload(), PhaseDecode, KindEmptyPayload},
		{"Malformed", Malformed(PhaseDispatch, "operand is not a sequence", 5), PhaseDispatch, KindMalformed},
		{"UnresolvedTarget", UnresolvedTarget(9), PhaseDispatch, KindUnresolvedTarget},
		{"UnknownMember", UnknownMember("nope", 0), PhaseDispatch, KindUnknownMember},
		{"Precondition", Precondition(PhaseBind, "already bound"), PhaseBind, KindPrecondition},
		{"HostUnavailable", HostUnavailable(PhaseHost), PhaseHost, KindHostUnavailable},
		{"Overflow", Overflow(PhaseInvoke, nil, 300, "int8"), PhaseInvoke, KindOverflow},
		{"ReadOnly", ReadOnly([]string{"x"}), PhaseInvoke, KindReadOnly},
		{"NotFound", NotFound(PhaseInvoke, "property", "x"), PhaseInvoke, KindNotFound},
		{"Panic", Panic(PhaseInvoke, []string{"boom"}, "bad"), PhaseInvoke, KindPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}
