package coerce

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	bridgeerrors "github.com/wippyai/webbridge/errors"
)

type point struct {
	X int    `json:"x"`
	Y int    `json:"y"`
	L string `json:"label"`
}

type label string

func TestTo(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   reflect.Type
		want  any
	}{
		{"int from int64", int64(7), reflect.TypeOf(0), 7},
		{"int8 from float64", float64(-3), reflect.TypeOf(int8(0)), int8(-3)},
		{"uint16 from int64", int64(65535), reflect.TypeOf(uint16(0)), uint16(65535)},
		{"float32 from int64", int64(2), reflect.TypeOf(float32(0)), float32(2)},
		{"named string", "hi", reflect.TypeOf(label("")), label("hi")},
		{"bool", true, reflect.TypeOf(false), true},
		{"nil to zero", nil, reflect.TypeOf(""), ""},
		{"slice", []any{int64(1), float64(2)}, reflect.TypeOf([]int{}), []int{1, 2}},
		{"array", []any{"a", "b"}, reflect.TypeOf([2]string{}), [2]string{"a", "b"}},
		{"map", map[string]any{"a": int64(1)}, reflect.TypeOf(map[string]int{}), map[string]int{"a": 1}},
		{"struct via json", map[string]any{"x": int64(1), "y": float64(2), "label": "p"}, reflect.TypeOf(point{}), point{X: 1, Y: 2, L: "p"}},
		{"pointer", int64(5), reflect.TypeOf(new(int)), 5},
		{"any passthrough", []any{"x"}, reflect.TypeOf((*any)(nil)).Elem(), []any{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := To(tt.value, tt.typ, nil)
			if err != nil {
				t.Fatalf("To: %v", err)
			}
			v := got.Interface()
			if p, ok := v.(*int); ok {
				v = *p
			}
			if diff := cmp.Diff(tt.want, v); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTo_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   reflect.Type
		kind  bridgeerrors.Kind
	}{
		{"overflow", int64(300), reflect.TypeOf(int8(0)), bridgeerrors.KindOverflow},
		{"negative to uint", int64(-1), reflect.TypeOf(uint(0)), bridgeerrors.KindTypeMismatch},
		{"fraction to int", 1.5, reflect.TypeOf(0), bridgeerrors.KindTypeMismatch},
		{"string to int", "1", reflect.TypeOf(0), bridgeerrors.KindTypeMismatch},
		{"number to string", int64(1), reflect.TypeOf(""), bridgeerrors.KindTypeMismatch},
		{"short array", []any{"a"}, reflect.TypeOf([2]string{}), bridgeerrors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := To(tt.value, tt.typ, []string{"arg"})
			if err == nil {
				t.Fatal("expected error")
			}
			kind, ok := bridgeerrors.KindOf(err)
			if !ok || kind != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", kind, tt.kind, err)
			}
		})
	}
}

func TestCall(t *testing.T) {
	t.Run("fixed arity", func(t *testing.T) {
		fn := reflect.ValueOf(func(a int, b string) string { return fmt.Sprintf("%s%d", b, a) })
		got, err := Call(fn, []any{int64(3), "n"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != "n3" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("missing args are zero", func(t *testing.T) {
		fn := reflect.ValueOf(func(a int, b string) string { return fmt.Sprintf("%q%d", b, a) })
		got, err := Call(fn, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != `""0` {
			t.Errorf("got %v", got)
		}
	})

	t.Run("surplus args rejected", func(t *testing.T) {
		fn := reflect.ValueOf(func(a int) {})
		_, err := Call(fn, []any{int64(1), int64(2)}, nil)
		if kind, _ := bridgeerrors.KindOf(err); kind != bridgeerrors.KindInvalidInput {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("variadic", func(t *testing.T) {
		fn := reflect.ValueOf(func(sep string, parts ...int) int {
			sum := 0
			for _, p := range parts {
				sum += p
			}
			return sum
		})
		got, err := Call(fn, []any{",", int64(1), int64(2), int64(3)}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != 6 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("error result", func(t *testing.T) {
		sentinel := errors.New("nope")
		fn := reflect.ValueOf(func() (int, error) { return 0, sentinel })
		_, err := Call(fn, nil, nil)
		if !errors.Is(err, sentinel) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("panic recovered", func(t *testing.T) {
		fn := reflect.ValueOf(func() { panic("boom") })
		_, err := Call(fn, nil, []string{"explode"})
		if kind, _ := bridgeerrors.KindOf(err); kind != bridgeerrors.KindPanic {
			t.Errorf("err = %v", err)
		}
	})
}

func TestScriptTypeOf(t *testing.T) {
	cases := map[string]any{
		"null":    nil,
		"boolean": false,
		"string":  "s",
		"number":  int64(1),
		"array":   []any{},
		"object":  map[string]any{},
	}
	for want, v := range cases {
		if got := ScriptTypeOf(v); got != want {
			t.Errorf("ScriptTypeOf(%#v) = %q, want %q", v, got, want)
		}
	}
}
