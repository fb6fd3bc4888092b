package stub

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/binding"
	"github.com/wippyai/webbridge/describe"
)

type fakeBinding struct {
	namespace string
	props     map[string]any
}

func (b *fakeBinding) Namespace() string { return b.namespace }
func (b *fakeBinding) Object() any       { return b }
func (b *fakeBinding) Property(name string) (any, error) {
	v, ok := b.props[name]
	if !ok {
		return nil, errors.New("no such property")
	}
	return v, nil
}
func (b *fakeBinding) SetProperty(name string, v any) error { b.props[name] = v; return nil }
func (b *fakeBinding) Invoke(string, []any) (any, error)    { return nil, nil }
func (b *fakeBinding) Serialize(v any) string               { return binding.Serialize(v) }

func mustStatic(t *testing.T, members ...webbridge.Member) *describe.Static {
	t.Helper()
	d, err := describe.NewStatic(members...)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return d
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		members []webbridge.Member
		props   map[string]any
		want    string
	}{
		{
			name: "plain object",
			members: []webbridge.Member{
				describe.Property("x", true),
				describe.Method("greet", 1),
			},
			props: map[string]any{"x": 5},
			want: `(function(exports) {
__bridge.defineProperty(exports, "x", 5, true);
exports["greet"] = __bridge.invokeNative.bind(null, exports, "greet#1");
})(__bridge.createPlugin("1", "app.demo", null));
`,
		},
		{
			name: "callable base",
			members: []webbridge.Member{
				describe.Method("", 2),
				describe.Property("label", false),
				describe.Method("log", -1),
			},
			props: map[string]any{"label": "calc"},
			want: `(function(exports) {
__bridge.defineProperty(exports, "label", "calc", false);
exports["log"] = __bridge.invokeNative.bind(null, exports, "log#");
})(__bridge.createPlugin("1", "app.demo", function(){return __bridge.invokeNative.apply(null, [this, "#2"].concat(Array.prototype.slice.call(arguments)));}));
`,
		},
		{
			name: "initializer",
			members: []webbridge.Member{
				describe.Initializer(1),
				describe.Property("count", true),
				describe.Method("inc", 0),
			},
			props: map[string]any{"count": 0},
			want: `(function(exports) {
__bridge.defineProperty(exports, "count", 0, true);
exports["inc"] = function(){return __bridge.invokeNative.apply(null, [this, "inc#0"].concat(Array.prototype.slice.call(arguments)));};
})(__bridge.createPlugin("1", "app.demo", "#1"));
`,
		},
		{
			name: "unreadable property",
			members: []webbridge.Member{
				describe.Property("missing", false),
			},
			props: map[string]any{},
			want: `(function(exports) {
__bridge.defineProperty(exports, "missing", undefined, false);
})(__bridge.createPlugin("1", "app.demo", null));
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := mustStatic(t, tt.members...)
			b := &fakeBinding{namespace: "app.demo", props: tt.props}
			got := Generate(desc, b, "1")
			if got != tt.want {
				t.Errorf("Generate() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	desc := mustStatic(t,
		describe.Property("a", true),
		describe.Property("b", false),
		describe.Method("m", 3),
	)
	b := &fakeBinding{namespace: "ns", props: map[string]any{
		"a": map[string]any{"z": 1, "y": []any{1, "two"}},
		"b": "text",
	}}

	first := Generate(desc, b, "chan")
	for i := 0; i < 10; i++ {
		if got := Generate(desc, b, "chan"); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}

	b.props["b"] = "changed"
	if Generate(desc, b, "chan") == first {
		t.Error("output should follow current property values")
	}
}

func TestGenerate_Escaping(t *testing.T) {
	desc := mustStatic(t, describe.Method(`say"hi`, 0))
	b := &fakeBinding{namespace: "app.x", props: map[string]any{}}

	got := Generate(desc, b, `ch"1`)
	if !strings.Contains(got, `exports["say\"hi"]`) {
		t.Errorf("member name not escaped:\n%s", got)
	}
	if !strings.Contains(got, `createPlugin("ch\"1"`) {
		t.Errorf("channel name not escaped:\n%s", got)
	}
}

type counter struct {
	Value int
	Step  int `bridge:",readonly"`
}

func (c *counter) Add(n int) int { c.Value += n; return c.Value }

func TestGenerate_Reflected(t *testing.T) {
	obj := &counter{Value: 3, Step: 1}
	b, err := binding.New("app.counter", obj, nil)
	if err != nil {
		t.Fatalf("binding.New: %v", err)
	}

	got := Generate(b.Descriptor(), b, "7")
	want := `(function(exports) {
__bridge.defineProperty(exports, "value", 3, true);
__bridge.defineProperty(exports, "step", 1, false);
exports["add"] = __bridge.invokeNative.bind(null, exports, "add#1");
})(__bridge.createPlugin("7", "app.counter", null));
`
	if got != want {
		t.Errorf("Generate() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRuntime(t *testing.T) {
	for _, name := range []string{"createPlugin", "invokeNative", "defineProperty", "updateProperty"} {
		if !strings.Contains(Runtime, name+":") {
			t.Errorf("runtime does not export %s", name)
		}
	}
	if !strings.HasPrefix(Runtime, "(function(global) {") {
		t.Error("runtime should be a single self-invoking expression")
	}
}

func TestUpdateProperty(t *testing.T) {
	got := UpdateProperty("app.demo", 2, "x", "7")
	want := `__bridge.updateProperty("app.demo", 2, "x", 7);`
	if got != want {
		t.Errorf("UpdateProperty() = %q, want %q", got, want)
	}
}
