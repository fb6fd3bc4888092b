package describe

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/webbridge"
	bridgeerrors "github.com/wippyai/webbridge/errors"
)

type greeter struct {
	Count    int
	Label    string `bridge:"title"`
	ID       string `bridge:",readonly"`
	Internal string `bridge:"-"`
	hidden   int
}

func (g *greeter) Greet(name string) string                 { return "hi " + name }
func (g *greeter) Sum(nums ...int) int                      { return 0 }
func (g *greeter) ReceiveRawMessage(payload any)            {}
func (g *greeter) HTTPStatus() int                          { return 200 }
func (g *greeter) SetScriptContext(webbridge.ScriptContext) {}

type callable struct{}

func (c *callable) Call(a, b int) int { return a + b }

type point struct {
	X, Y int
}

func newPoint(x, y int) *point { return &point{X: x, Y: y} }

func TestOf_Members(t *testing.T) {
	d, err := Of(&greeter{})
	if err != nil {
		t.Fatal(err)
	}

	want := []webbridge.Member{
		{Name: "count", Kind: webbridge.KindProperty, Settable: true},
		{Name: "title", Kind: webbridge.KindProperty, Settable: true},
		{Name: "id", Kind: webbridge.KindProperty, Settable: false},
		{Name: "greet", Kind: webbridge.KindMethod, Type: "#1"},
		{Name: "httpStatus", Kind: webbridge.KindMethod, Type: "#0"},
		{Name: "sum", Kind: webbridge.KindMethod, Type: "#"},
	}
	if diff := cmp.Diff(want, d.Members()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	if _, ok := d.Lookup("receiveRawMessage"); ok {
		t.Error("capability methods must not become members")
	}
	if _, ok := d.Lookup("internal"); ok {
		t.Error(`bridge:"-" fields must be skipped`)
	}
	if idx, ok := d.FieldIndex("title"); !ok || !reflect.DeepEqual(idx, []int{1}) {
		t.Errorf("FieldIndex(title) = %v, %v", idx, ok)
	}
	if m, ok := d.MethodName("httpStatus"); !ok || m != "HTTPStatus" {
		t.Errorf("MethodName(httpStatus) = %q, %v", m, ok)
	}
}

func TestOf_Deterministic(t *testing.T) {
	a, err := Of(&greeter{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := For(reflect.TypeOf(&greeter{}))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("descriptors without options should be cached per type")
	}
	if diff := cmp.Diff(a.Members(), b.Members()); diff != "" {
		t.Error(diff)
	}
}

func TestOf_CallableBase(t *testing.T) {
	d, err := Of(&callable{})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := d.Lookup("")
	if !ok {
		t.Fatal("Call should become the base member")
	}
	if m.Kind != webbridge.KindMethod || m.Type != "#2" {
		t.Errorf("base member = %+v", m)
	}
}

func TestOf_Initializer(t *testing.T) {
	d, err := Of(&point{}, WithInitializer(newPoint))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := d.Lookup("")
	if !ok || !m.IsInitializer() || m.Type != "#2" {
		t.Fatalf("initializer = %+v, %v", m, ok)
	}
	if d.Members()[0].Name != "" {
		t.Error("initializer should be declared first")
	}

	obj, err := d.Construct([]any{int64(3), float64(4)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&point{X: 3, Y: 4}, obj); diff != "" {
		t.Error(diff)
	}
}

func TestConstruct_ZeroValue(t *testing.T) {
	d, err := Of(&point{})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := d.Construct(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&point{}, obj); diff != "" {
		t.Error(diff)
	}

	_, err = d.Construct([]any{int64(1)})
	if kind, _ := bridgeerrors.KindOf(err); kind != bridgeerrors.KindInvalidInput {
		t.Errorf("err = %v", err)
	}
}

func TestOf_Errors(t *testing.T) {
	tests := []struct {
		name string
		obj  any
		opts []Option
		kind bridgeerrors.Kind
	}{
		{"nil", nil, nil, bridgeerrors.KindInvalidInput},
		{"non-pointer", point{}, nil, bridgeerrors.KindUnsupported},
		{"bad initializer", &point{}, []Option{WithInitializer(func() int { return 0 })}, bridgeerrors.KindTypeMismatch},
		{"initializer not func", &point{}, []Option{WithInitializer(3)}, bridgeerrors.KindTypeMismatch},
		{"rename collision", &point{}, []Option{WithName("Y", "x")}, bridgeerrors.KindRegistration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Of(tt.obj, tt.opts...)
			var be *bridgeerrors.Error
			if !errors.As(err, &be) {
				t.Fatalf("err = %v", err)
			}
			if be.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", be.Kind, tt.kind)
			}
		})
	}
}

func TestStatic(t *testing.T) {
	s, err := NewStatic(Initializer(1), Property("x", true), Method("greet", 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []webbridge.Member{
		{Name: "", Kind: webbridge.KindInitializer, Type: "#1"},
		{Name: "x", Kind: webbridge.KindProperty, Settable: true},
		{Name: "greet", Kind: webbridge.KindMethod, Type: "#1"},
	}
	if diff := cmp.Diff(want, s.Members()); diff != "" {
		t.Error(diff)
	}

	if _, err := NewStatic(Property("x", true), Method("x", 0)); err == nil {
		t.Error("duplicate names should be rejected")
	}
}

func TestScriptName(t *testing.T) {
	tests := map[string]string{
		"Count":      "count",
		"URL":        "url",
		"HTTPServer": "httpServer",
		"ID":         "id",
		"GetValue":   "getValue",
		"already":    "already",
		"":           "",
	}
	for in, want := range tests {
		if got := ScriptName(in); got != want {
			t.Errorf("ScriptName(%q) = %q, want %q", in, got, want)
		}
	}
}
