package describe

import (
	"reflect"
	"sync"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/internal/coerce"
)

// TagName is the struct tag consulted for property names and options.
const TagName = "bridge"

// DefaultMethod is the Go method that becomes the callable base member.
const DefaultMethod = "Call"

// capability methods are never exposed as script members
var reserved = map[string]bool{
	"ReceiveRawMessage": true,
	"ProxySource":       true,
	"FinalizeForScript": true,
	"Describe":          true,
	"BindingFor":        true,
	"SetScriptContext":  true,
}

var cache sync.Map // reflect.Type -> *Type

// Type is a descriptor built by reflection over a Go pointer type.
// Properties come from exported struct fields in declaration order, methods
// from exported pointer-receiver methods sorted by Go name.
type Type struct {
	goType  reflect.Type
	init    reflect.Value
	members []webbridge.Member
	index   map[string]int
	fields  map[string][]int
	methods map[string]string
}

// Option configures descriptor construction.
type Option func(*config)

type config struct {
	init    any
	renames map[string]string
}

// WithInitializer registers a constructor function as the initializer member.
// fn must return the described pointer type, optionally followed by an error.
func WithInitializer(fn any) Option {
	return func(c *config) { c.init = fn }
}

// WithName overrides the script name of a field or method.
func WithName(goName, scriptName string) Option {
	return func(c *config) {
		if c.renames == nil {
			c.renames = make(map[string]string)
		}
		c.renames[goName] = scriptName
	}
}

// Of describes the dynamic type of obj, which must be a non-nil pointer.
func Of(obj any, opts ...Option) (*Type, error) {
	if obj == nil {
		return nil, errors.InvalidInput(errors.PhaseReflect, "cannot describe nil")
	}
	return For(reflect.TypeOf(obj), opts...)
}

// For describes the pointer type t. Descriptors built without options are cached.
func For(t reflect.Type, opts ...Option) (*Type, error) {
	if t.Kind() != reflect.Pointer {
		return nil, errors.New(errors.PhaseReflect, errors.KindUnsupported).
			GoType(t.String()).
			Detail("native objects must be pointers").
			Build()
	}

	if len(opts) == 0 {
		if cached, ok := cache.Load(t); ok {
			return cached.(*Type), nil
		}
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	desc, err := build(t, cfg)
	if err != nil {
		return nil, err
	}

	if len(opts) == 0 {
		actual, _ := cache.LoadOrStore(t, desc)
		return actual.(*Type), nil
	}
	return desc, nil
}

func build(t reflect.Type, cfg *config) (*Type, error) {
	d := &Type{
		goType:  t,
		index:   make(map[string]int),
		fields:  make(map[string][]int),
		methods: make(map[string]string),
	}

	rename := func(goName, def string) string {
		if n, ok := cfg.renames[goName]; ok {
			return n
		}
		return def
	}

	if cfg.init != nil {
		fn := reflect.ValueOf(cfg.init)
		if err := checkInitializer(fn, t); err != nil {
			return nil, err
		}
		d.init = fn
		d.add(webbridge.Member{
			Name: "",
			Kind: webbridge.KindInitializer,
			Type: webbridge.ArityTag(arity(fn.Type(), 0)),
		})
	}

	if st := t.Elem(); st.Kind() == reflect.Struct {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.IsExported() || f.Anonymous {
				continue
			}
			name, readonly, skip := tagOptions(f.Tag.Get(TagName))
			if skip {
				continue
			}
			if name == "" {
				name = rename(f.Name, ScriptName(f.Name))
			}
			if _, dup := d.index[name]; dup {
				return nil, duplicate(t, name)
			}
			d.fields[name] = f.Index
			d.add(webbridge.Member{
				Name:     name,
				Kind:     webbridge.KindProperty,
				Settable: !readonly,
			})
		}
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() || reserved[m.Name] {
			continue
		}
		name := rename(m.Name, ScriptName(m.Name))
		if m.Name == DefaultMethod && !d.init.IsValid() {
			name = ""
		}
		if _, dup := d.index[name]; dup {
			return nil, duplicate(t, name)
		}
		d.methods[name] = m.Name
		d.add(webbridge.Member{
			Name: name,
			Kind: webbridge.KindMethod,
			Type: webbridge.ArityTag(arity(m.Type, 1)),
		})
	}

	return d, nil
}

func (d *Type) add(m webbridge.Member) {
	d.index[m.Name] = len(d.members)
	d.members = append(d.members, m)
}

// Lookup returns the member with the given script name.
func (d *Type) Lookup(name string) (webbridge.Member, bool) {
	i, ok := d.index[name]
	if !ok {
		return webbridge.Member{}, false
	}
	return d.members[i], true
}

// Members returns all members, initializer first, then properties, then methods.
func (d *Type) Members() []webbridge.Member {
	out := make([]webbridge.Member, len(d.members))
	copy(out, d.members)
	return out
}

// GoType returns the described pointer type.
func (d *Type) GoType() reflect.Type {
	return d.goType
}

// FieldIndex returns the struct field index path backing a property.
func (d *Type) FieldIndex(name string) ([]int, bool) {
	idx, ok := d.fields[name]
	return idx, ok
}

// MethodName returns the Go method backing a script method.
func (d *Type) MethodName(name string) (string, bool) {
	m, ok := d.methods[name]
	return m, ok
}

// Construct builds a new native instance. With an initializer the arguments
// are coerced to its parameters; without one a zero value is allocated and
// arguments must be empty.
func (d *Type) Construct(args []any) (any, error) {
	if !d.init.IsValid() {
		if len(args) > 0 {
			return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
				GoType(d.goType.String()).
				Detail("type has no initializer but %d arguments were given", len(args)).
				Build()
		}
		return reflect.New(d.goType.Elem()).Interface(), nil
	}

	obj, err := coerce.Call(d.init, args, []string{"<init>"})
	if err != nil {
		return nil, err
	}
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInstantiation).
			GoType(d.goType.String()).
			Detail("initializer returned nil").
			Build()
	}
	return obj, nil
}

func checkInitializer(fn reflect.Value, t reflect.Type) error {
	if fn.Kind() != reflect.Func {
		return errors.New(errors.PhaseReflect, errors.KindTypeMismatch).
			GoType(fn.Type().String()).
			Detail("initializer must be a function").
			Build()
	}
	ft := fn.Type()
	ok := ft.NumOut() >= 1 && ft.NumOut() <= 2 && ft.Out(0) == t
	if ft.NumOut() == 2 && ft.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
		ok = false
	}
	if !ok {
		return errors.New(errors.PhaseReflect, errors.KindTypeMismatch).
			GoType(ft.String()).
			Detail("initializer must return %s", t).
			Build()
	}
	return nil
}

// arity counts parameters after skipping the receiver; variadic is -1.
func arity(ft reflect.Type, skip int) int {
	if ft.IsVariadic() {
		return -1
	}
	return ft.NumIn() - skip
}

func duplicate(t reflect.Type, name string) error {
	return errors.New(errors.PhaseReflect, errors.KindRegistration).
		GoType(t.String()).
		Detail("duplicate member %q", name).
		Build()
}
