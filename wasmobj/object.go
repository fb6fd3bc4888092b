package wasmobj

import (
	"context"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/binding"
	"github.com/wippyai/webbridge/errors"
)

// Object is one module instance.
type Object struct {
	class *Class
	mod   api.Module
}

var (
	_ webbridge.Describer = (*Object)(nil)
	_ webbridge.Binder    = (*Object)(nil)
	_ webbridge.Finalizer = (*Object)(nil)
)

// Class returns the class the object was instantiated from.
func (o *Object) Class() *Class { return o.class }

// Describe returns the class descriptor.
func (o *Object) Describe() (webbridge.Descriptor, error) {
	return o.class, nil
}

// BindingFor wraps the object for namespace.
func (o *Object) BindingFor(namespace string, desc webbridge.Descriptor) (webbridge.Binding, error) {
	if desc != webbridge.Descriptor(o.class) {
		return nil, errors.InvalidInput(errors.PhaseBind, "descriptor does not belong to this module")
	}
	return &objectBinding{obj: o, namespace: namespace}, nil
}

// FinalizeForScript closes the module instance once its proxy is disposed.
func (o *Object) FinalizeForScript() {
	_ = o.Close(context.Background())
}

// Close closes the module instance.
func (o *Object) Close(ctx context.Context) error {
	return o.mod.Close(ctx)
}

// Call invokes an exported function. A single result is returned as is,
// several as a slice, none as nil.
func (o *Object) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := o.class.funcs[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "function", name)
	}
	if len(args) != len(fn.params) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Path(name).
			Detail("expects %d arguments, got %d", len(fn.params), len(args)).
			Build()
	}

	params := make([]uint64, len(args))
	for i, arg := range args {
		v, err := encode(fn.params[i], arg, []string{name, strconv.Itoa(i)})
		if err != nil {
			return nil, err
		}
		params[i] = v
	}

	export := o.mod.ExportedFunction(fn.export)
	if export == nil {
		return nil, errors.NotFound(errors.PhaseInvoke, "function", name)
	}
	out, err := export.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInvoke, errors.KindPanic, err, "call "+name)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return decode(fn.results[0], out[0]), nil
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = decode(fn.results[i], v)
	}
	return results, nil
}

// Global reads an exported global.
func (o *Object) Global(name string) (any, error) {
	g, ok := o.class.globals[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "global", name)
	}
	export := o.mod.ExportedGlobal(g.export)
	if export == nil {
		return nil, errors.NotFound(errors.PhaseInvoke, "global", name)
	}
	return decode(g.typ, export.Get()), nil
}

// SetGlobal writes a mutable exported global.
func (o *Object) SetGlobal(name string, value any) error {
	g, ok := o.class.globals[name]
	if !ok {
		return errors.NotFound(errors.PhaseInvoke, "global", name)
	}
	export, ok := o.mod.ExportedGlobal(g.export).(api.MutableGlobal)
	if !ok || !g.mutable {
		return errors.ReadOnly([]string{name})
	}
	v, err := encode(g.typ, value, []string{name})
	if err != nil {
		return err
	}
	export.Set(v)
	return nil
}

type objectBinding struct {
	obj       *Object
	namespace string
}

func (b *objectBinding) Namespace() string { return b.namespace }
func (b *objectBinding) Object() any       { return b.obj }

func (b *objectBinding) Property(name string) (any, error) {
	return b.obj.Global(name)
}

func (b *objectBinding) SetProperty(name string, value any) error {
	return b.obj.SetGlobal(name, value)
}

func (b *objectBinding) Invoke(name string, args []any) (any, error) {
	return b.obj.Call(context.Background(), name, args...)
}

func (b *objectBinding) Serialize(v any) string {
	return binding.Serialize(v)
}
