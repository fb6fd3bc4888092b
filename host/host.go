package host

import (
	"sync"
	"weak"
)

// InjectAt selects when a user script runs during document load.
type InjectAt uint8

const (
	// DocumentStart runs before any page script.
	DocumentStart InjectAt = iota
	// DocumentEnd runs after the page scripts.
	DocumentEnd
)

// String returns the injection point name.
func (i InjectAt) String() string {
	if i == DocumentEnd {
		return "document-end"
	}
	return "document-start"
}

// UserScript is a script the endpoint runs on every document load.
type UserScript struct {
	Source        string
	InjectAt      InjectAt
	MainFrameOnly bool
}

// ScriptID identifies an added user script.
type ScriptID uint64

// MessageHandler receives message bodies posted by scripts.
type MessageHandler func(body any)

// Endpoint is the script environment a channel attaches to.
type Endpoint interface {
	// AddMessageHandler registers h under name. Names are unique per endpoint.
	AddMessageHandler(name string, h MessageHandler) error
	RemoveMessageHandler(name string)
	AddUserScript(s UserScript) ScriptID
	RemoveUserScript(id ScriptID)
	// EvaluateScript runs source in the current top-level document.
	EvaluateScript(source string) error
}

// Ref resolves an endpoint that may no longer exist.
type Ref interface {
	Endpoint() (Endpoint, bool)
}

// RefFunc adapts a function to Ref.
type RefFunc func() (Endpoint, bool)

// Endpoint calls f.
func (f RefFunc) Endpoint() (Endpoint, bool) { return f() }

type weakRef[T any] struct {
	ptr weak.Pointer[T]
}

// Weak returns a Ref that does not keep e alive.
func Weak[T any, P interface {
	*T
	Endpoint
}](e P) Ref {
	return weakRef[T]{ptr: weak.Make((*T)(e))}
}

func (r weakRef[T]) Endpoint() (Endpoint, bool) {
	p := r.ptr.Value()
	if p == nil {
		return nil, false
	}
	e, ok := any(p).(Endpoint)
	return e, ok
}

// Handle is a strong Ref that can be released explicitly.
type Handle struct {
	mu sync.RWMutex
	e  Endpoint
}

// NewHandle wraps e.
func NewHandle(e Endpoint) *Handle {
	return &Handle{e: e}
}

// Endpoint returns the endpoint unless the handle was released.
func (h *Handle) Endpoint() (Endpoint, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.e, h.e != nil
}

// Release drops the endpoint. Later resolutions report it gone.
func (h *Handle) Release() {
	h.mu.Lock()
	h.e = nil
	h.mu.Unlock()
}
