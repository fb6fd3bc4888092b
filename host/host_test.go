package host

import (
	"runtime"
	"testing"
)

type fakeEndpoint struct {
	handlers map[string]MessageHandler
	scripts  []UserScript
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{handlers: make(map[string]MessageHandler)}
}

func (f *fakeEndpoint) AddMessageHandler(name string, h MessageHandler) error {
	f.handlers[name] = h
	return nil
}

func (f *fakeEndpoint) RemoveMessageHandler(name string) { delete(f.handlers, name) }

func (f *fakeEndpoint) AddUserScript(s UserScript) ScriptID {
	f.scripts = append(f.scripts, s)
	return ScriptID(len(f.scripts))
}

func (f *fakeEndpoint) RemoveUserScript(ScriptID) {}

func (f *fakeEndpoint) EvaluateScript(string) error { return nil }

func TestHandle(t *testing.T) {
	e := newFakeEndpoint()
	h := NewHandle(e)

	got, ok := h.Endpoint()
	if !ok || got != e {
		t.Fatalf("Endpoint() = %v, %v", got, ok)
	}

	h.Release()
	if _, ok := h.Endpoint(); ok {
		t.Error("released handle should report endpoint gone")
	}
	h.Release()
}

func TestNewHandle_Nil(t *testing.T) {
	if _, ok := NewHandle(nil).Endpoint(); ok {
		t.Error("nil handle should report endpoint gone")
	}
}

func TestWeak_Resolves(t *testing.T) {
	e := newFakeEndpoint()
	ref := Weak(e)

	got, ok := ref.Endpoint()
	if !ok || got != Endpoint(e) {
		t.Fatalf("Endpoint() = %v, %v", got, ok)
	}
	runtime.KeepAlive(e)
}

func TestWeak_Collected(t *testing.T) {
	ref := func() Ref {
		return Weak(newFakeEndpoint())
	}()

	for i := 0; i < 3; i++ {
		runtime.GC()
	}
	if _, ok := ref.Endpoint(); ok {
		t.Error("weak ref should not keep the endpoint alive")
	}
}

func TestRefFunc(t *testing.T) {
	e := newFakeEndpoint()
	var ref Ref = RefFunc(func() (Endpoint, bool) { return e, true })
	if got, ok := ref.Endpoint(); !ok || got != Endpoint(e) {
		t.Errorf("Endpoint() = %v, %v", got, ok)
	}
}

func TestInjectAt_String(t *testing.T) {
	if DocumentStart.String() != "document-start" || DocumentEnd.String() != "document-end" {
		t.Errorf("unexpected names %q %q", DocumentStart, DocumentEnd)
	}
}
