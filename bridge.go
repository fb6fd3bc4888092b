package webbridge

import "strconv"

// MemberKind classifies a member of a type descriptor.
type MemberKind uint8

const (
	KindProperty MemberKind = iota + 1
	KindMethod
	KindInitializer
)

// String returns the lower-case kind name.
func (k MemberKind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindInitializer:
		return "initializer"
	}
	return "unknown"
}

// Member describes one script-visible member of a native type.
// The empty name is reserved for the base member (default method or initializer).
type Member struct {
	Name     string
	Type     string // type tag appended to the opcode in generated code
	Kind     MemberKind
	Settable bool // properties only
}

// IsProperty reports whether m is a property.
func (m Member) IsProperty() bool { return m.Kind == KindProperty }

// IsMethod reports whether m is a method.
func (m Member) IsMethod() bool { return m.Kind == KindMethod }

// IsInitializer reports whether m is the initializer.
func (m Member) IsInitializer() bool { return m.Kind == KindInitializer }

// Descriptor enumerates the members of a native type.
// Members must return the same order on every call.
type Descriptor interface {
	Lookup(name string) (Member, bool)
	Members() []Member
}

// Binding wraps one native instance under its script namespace.
type Binding interface {
	Namespace() string
	Object() any
	Property(name string) (any, error)
	SetProperty(name string, value any) error
	Invoke(name string, args []any) (any, error)
	// Serialize renders v as a script literal.
	Serialize(v any) string
}

// Constructor is implemented by descriptors that can build new native
// instances from script constructor arguments.
type Constructor interface {
	Construct(args []any) (any, error)
}

// Describer lets a native object supply its own descriptor.
type Describer interface {
	Describe() (Descriptor, error)
}

// Binder lets a native object supply its own binding.
type Binder interface {
	BindingFor(namespace string, desc Descriptor) (Binding, error)
}

// RawMessageReceiver receives payloads that carry no $opcode.
type RawMessageReceiver interface {
	ReceiveRawMessage(payload any)
}

// ProxySourceProvider may rewrite the generated proxy source before injection.
type ProxySourceProvider interface {
	ProxySource(generated string) string
}

// Finalizer is notified when a script-created instance is disposed.
type Finalizer interface {
	FinalizeForScript()
}

// ScriptContext lets native code reach back into the bound document.
// Calls are no-ops once the host endpoint is gone or the channel unbound.
type ScriptContext interface {
	EvaluateScript(source string) error
	SyncProperty(id int, name string) error
}

// ScriptAware receives the ScriptContext of the channel it is bound to.
type ScriptAware interface {
	SetScriptContext(ctx ScriptContext)
}

// ArityTag returns the type tag for a member taking n arguments; negative n
// denotes a variadic member.
func ArityTag(n int) string {
	if n < 0 {
		return "#"
	}
	return "#" + strconv.Itoa(n)
}

// SplitTag separates an opcode into member name and type tag.
func SplitTag(opcode string) (name, tag string) {
	for i := 0; i < len(opcode); i++ {
		if opcode[i] == '#' {
			return opcode[:i], opcode[i:]
		}
	}
	return opcode, ""
}
