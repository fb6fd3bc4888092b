// Package binding implements webbridge.Binding over Go values by reflection.
package binding

import (
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/describe"
	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/internal/coerce"
)

// Object binds one native pointer value under a script namespace.
type Object struct {
	namespace string
	value     reflect.Value
	desc      *describe.Type
}

// New binds obj under namespace. desc may be nil, in which case the type is
// described by reflection.
func New(namespace string, obj any, desc *describe.Type) (*Object, error) {
	if obj == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "cannot bind nil")
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errors.New(errors.PhaseBind, errors.KindUnsupported).
			GoType(rv.Type().String()).
			Detail("native objects must be non-nil pointers").
			Build()
	}
	if desc == nil {
		var err error
		if desc, err = describe.Of(obj); err != nil {
			return nil, err
		}
	}
	if desc.GoType() != rv.Type() {
		return nil, errors.TypeMismatch(errors.PhaseBind, nil, rv.Type().String(), desc.GoType().String())
	}
	return &Object{namespace: namespace, value: rv, desc: desc}, nil
}

// Factory returns a constructor for bindings of the given descriptor,
// suitable for generic descriptor implementations.
func Factory(desc *describe.Type) func(namespace string, obj any) (webbridge.Binding, error) {
	return func(namespace string, obj any) (webbridge.Binding, error) {
		return New(namespace, obj, desc)
	}
}

// Namespace returns the script path the object is bound under.
func (o *Object) Namespace() string { return o.namespace }

// Object returns the bound native pointer.
func (o *Object) Object() any { return o.value.Interface() }

// Descriptor returns the descriptor the binding was built with.
func (o *Object) Descriptor() *describe.Type { return o.desc }

// Property reads a property value.
func (o *Object) Property(name string) (any, error) {
	idx, ok := o.desc.FieldIndex(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "property", name)
	}
	return o.value.Elem().FieldByIndex(idx).Interface(), nil
}

// SetProperty coerces value to the field type and stores it.
func (o *Object) SetProperty(name string, value any) error {
	m, ok := o.desc.Lookup(name)
	if !ok || !m.IsProperty() {
		return errors.NotFound(errors.PhaseInvoke, "property", name)
	}
	if !m.Settable {
		return errors.ReadOnly([]string{o.namespace, name})
	}
	idx, _ := o.desc.FieldIndex(name)
	field := o.value.Elem().FieldByIndex(idx)
	v, err := coerce.To(value, field.Type(), []string{o.namespace, name})
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}

// Invoke calls a method with script arguments.
func (o *Object) Invoke(name string, args []any) (any, error) {
	goName, ok := o.desc.MethodName(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "method", name)
	}
	fn := o.value.MethodByName(goName)
	return coerce.Call(fn, args, []string{o.namespace, name})
}

// Serialize renders v as a script literal.
func (o *Object) Serialize(v any) string {
	return Serialize(v)
}

// Serialize renders v as a JSON literal, which is valid script source.
// Values that cannot be encoded render as undefined.
func Serialize(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "undefined"
	}
	return string(data)
}
