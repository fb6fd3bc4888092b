package wasmobj

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/internal/coerce"
)

// witType maps a core value type to the WIT type scripts see.
func witType(t api.ValueType) (wit.Type, bool) {
	switch t {
	case api.ValueTypeI32:
		return wit.S32{}, true
	case api.ValueTypeI64:
		return wit.S64{}, true
	case api.ValueTypeF32:
		return wit.F32{}, true
	case api.ValueTypeF64:
		return wit.F64{}, true
	}
	return nil, false
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// encode converts a script value to the stack representation of t.
func encode(t wit.Type, v any, path []string) (uint64, error) {
	switch t.(type) {
	case wit.S32:
		n, ok := coerce.ToInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseInvoke, path, "s32", coerce.ScriptTypeOf(v))
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, errors.Overflow(errors.PhaseInvoke, path, v, "s32")
		}
		return api.EncodeI32(int32(n)), nil
	case wit.S64:
		n, ok := coerce.ToInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseInvoke, path, "s64", coerce.ScriptTypeOf(v))
		}
		return api.EncodeI64(n), nil
	case wit.F32:
		f, ok := coerce.ToFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseInvoke, path, "f32", coerce.ScriptTypeOf(v))
		}
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return 0, errors.Overflow(errors.PhaseInvoke, path, v, "f32")
		}
		return api.EncodeF32(float32(f)), nil
	case wit.F64:
		f, ok := coerce.ToFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseInvoke, path, "f64", coerce.ScriptTypeOf(v))
		}
		return api.EncodeF64(f), nil
	}
	return 0, errors.Unsupported(errors.PhaseInvoke, witTypeStr(t))
}

// decode converts a stack value of type t to a Go value.
func decode(t wit.Type, v uint64) any {
	switch t.(type) {
	case wit.S32:
		return api.DecodeI32(v)
	case wit.S64:
		return int64(v)
	case wit.F32:
		return api.DecodeF32(v)
	case wit.F64:
		return api.DecodeF64(v)
	}
	return v
}

// globalWitType maps a global's binary value type byte.
func globalWitType(b byte) (wit.Type, bool) {
	return witType(api.ValueType(b))
}
