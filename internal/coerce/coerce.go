package coerce

import (
	"math"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/wippyai/webbridge/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// To converts v to a value of type t.
func To(v any, t reflect.Type, path []string) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if rv.Type().Implements(t) {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return reflect.Value{}, mismatch(path, t, v)

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, mismatch(path, t, v)
		}
		return reflect.ValueOf(b).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := ToInt64(v)
		if !ok {
			return reflect.Value{}, mismatch(path, t, v)
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, errors.Overflow(errors.PhaseInvoke, path, v, t.String())
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := ToUint64(v)
		if !ok {
			return reflect.Value{}, mismatch(path, t, v)
		}
		out := reflect.New(t).Elem()
		if out.OverflowUint(n) {
			return reflect.Value{}, errors.Overflow(errors.PhaseInvoke, path, v, t.String())
		}
		out.SetUint(n)
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, ok := ToFloat64(v)
		if !ok {
			return reflect.Value{}, mismatch(path, t, v)
		}
		out := reflect.New(t).Elem()
		if out.OverflowFloat(f) {
			return reflect.Value{}, errors.Overflow(errors.PhaseInvoke, path, v, t.String())
		}
		out.SetFloat(f)
		return out, nil

	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, mismatch(path, t, v)
		}
		return reflect.ValueOf(s).Convert(t), nil

	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return viaJSON(v, t, path)
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			ev, err := To(item, t.Elem(), appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Array:
		items, ok := v.([]any)
		if !ok || len(items) != t.Len() {
			return reflect.Value{}, mismatch(path, t, v)
		}
		out := reflect.New(t).Elem()
		for i, item := range items {
			ev, err := To(item, t.Elem(), appendPath(path, strconv.Itoa(i)))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		rec, ok := v.(map[string]any)
		if !ok || t.Key().Kind() != reflect.String {
			return viaJSON(v, t, path)
		}
		out := reflect.MakeMapWithSize(t, len(rec))
		for k, item := range rec {
			ev, err := To(item, t.Elem(), appendPath(path, k))
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil

	case reflect.Pointer:
		ev, err := To(v, t.Elem(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(ev)
		return out, nil
	}

	return viaJSON(v, t, path)
}

// viaJSON decodes records into structs and other composite types by
// re-encoding the script value.
func viaJSON(v any, t reflect.Type, path []string) (reflect.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return reflect.Value{}, errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Path(path...).
			GoType(t.String()).
			Cause(err).
			Build()
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Path(path...).
			GoType(t.String()).
			ScriptType(ScriptTypeOf(v)).
			Cause(err).
			Build()
	}
	return out.Elem(), nil
}

// Call invokes fn with args coerced to its parameter types. Missing trailing
// arguments are zero-filled; surplus arguments are rejected unless fn is
// variadic. Panics raised by fn are returned as errors.
func Call(fn reflect.Value, args []any, path []string) (result any, err error) {
	ft := fn.Type()
	in, err := Args(ft, args, path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.Panic(errors.PhaseInvoke, path, r)
		}
	}()

	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}
	return Results(out)
}

// Args coerces args to the parameter list of function type ft. For variadic
// functions the last element of the returned slice is the packed tail.
func Args(ft reflect.Type, args []any, path []string) ([]reflect.Value, error) {
	n := ft.NumIn()
	fixed := n
	if ft.IsVariadic() {
		fixed = n - 1
	}
	if !ft.IsVariadic() && len(args) > n {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Path(path...).
			Detail("expects %d arguments, got %d", n, len(args)).
			Build()
	}

	in := make([]reflect.Value, n)
	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := To(arg, ft.In(i), appendPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	if ft.IsVariadic() {
		tailType := ft.In(n - 1)
		var rest []any
		if len(args) > fixed {
			rest = args[fixed:]
		}
		tail := reflect.MakeSlice(tailType, len(rest), len(rest))
		for i, arg := range rest {
			v, err := To(arg, tailType.Elem(), appendPath(path, strconv.Itoa(fixed+i)))
			if err != nil {
				return nil, err
			}
			tail.Index(i).Set(v)
		}
		in[n-1] = tail
	}
	return in, nil
}

// Results folds a Go result list into a single value and error. A trailing
// error result is surfaced as the error; the first other result is the value.
func Results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// ToInt64 handles decoded script numbers and Go integer types.
func ToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float32:
		if v == float32(math.Trunc(float64(v))) && float64(v) >= math.MinInt64 && float64(v) < math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

// ToUint64 handles decoded script numbers and Go integer types.
func ToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case float32:
		if v >= 0 && v == float32(math.Trunc(float64(v))) && float64(v) < math.MaxUint64 {
			return uint64(v), true
		}
	case float64:
		if v >= 0 && v == math.Trunc(v) && v < math.MaxUint64 {
			return uint64(v), true
		}
	default:
		if n, ok := ToInt64(value); ok && n >= 0 {
			return uint64(n), true
		}
	}
	return 0, false
}

// ToFloat64 handles decoded script numbers and Go numeric types.
func ToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint:
		return float64(v), true
	}
	if n, ok := ToInt64(value); ok {
		return float64(n), true
	}
	return 0, false
}

// ScriptTypeOf names the script-side type of a decoded value.
func ScriptTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := ToFloat64(v); ok {
		return "number"
	}
	return reflect.TypeOf(v).String()
}

func mismatch(path []string, t reflect.Type, v any) error {
	return errors.TypeMismatch(errors.PhaseInvoke, path, t.String(), ScriptTypeOf(v))
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
