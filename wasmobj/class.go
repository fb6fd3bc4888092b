package wasmobj

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/errors"
)

type function struct {
	export  string
	params  []wit.Type
	results []wit.Type
}

type global struct {
	export  string
	typ     wit.Type
	mutable bool
}

type config struct {
	logger *zap.Logger
	module wazero.ModuleConfig
}

// Option configures Compile.
type Option func(*config)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithModuleConfig sets the configuration every instance is created with.
// The module name is always cleared so instances stay anonymous.
func WithModuleConfig(mc wazero.ModuleConfig) Option {
	return func(c *config) { c.module = mc }
}

// Class is a compiled module described as a script type. Exported
// functions are methods and exported globals are properties. Each instance
// is a separate module instance.
type Class struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
	logger   *zap.Logger
	module   wazero.ModuleConfig

	members []webbridge.Member
	index   map[string]int
	funcs   map[string]function
	globals map[string]global
}

var (
	_ webbridge.Descriptor  = (*Class)(nil)
	_ webbridge.Constructor = (*Class)(nil)
)

// Compile compiles wasm on rt and derives its members. Exports whose types
// have no script mapping are left out.
func Compile(ctx context.Context, rt wazero.Runtime, wasm []byte, opts ...Option) (*Class, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.module == nil {
		cfg.module = wazero.NewModuleConfig()
	}

	info, err := scanModule(wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindMalformed, err, "scan module")
	}
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindMalformed, err, "compile module")
	}

	c := &Class{
		rt:       rt,
		compiled: compiled,
		logger:   cfg.logger.Named("wasmobj"),
		module:   cfg.module.WithName(""),
		index:    make(map[string]int),
		funcs:    make(map[string]function),
		globals:  make(map[string]global),
	}
	c.add(webbridge.Member{Kind: webbridge.KindInitializer, Type: webbridge.ArityTag(0)})

	defs := compiled.ExportedFunctions()
	for _, exp := range info.Exports {
		if _, dup := c.index[exp.Name]; dup || exp.Name == "" {
			continue
		}
		switch exp.Kind {
		case kindFunc:
			fn, ok := describeFunction(exp.Name, defs[exp.Name])
			if !ok {
				c.logger.Debug("export skipped", zap.String("function", exp.Name))
				continue
			}
			c.funcs[exp.Name] = fn
			c.add(webbridge.Member{Name: exp.Name, Kind: webbridge.KindMethod, Type: webbridge.ArityTag(len(fn.params))})
		case kindGlobal:
			if int(exp.Index) >= len(info.Globals) {
				return nil, errors.Malformed(errors.PhaseLoad, "export of unknown global", exp.Name)
			}
			g := info.Globals[exp.Index]
			typ, ok := globalWitType(g.ValType)
			if !ok {
				c.logger.Debug("export skipped", zap.String("global", exp.Name))
				continue
			}
			c.globals[exp.Name] = global{export: exp.Name, typ: typ, mutable: g.Mutable}
			c.add(webbridge.Member{Name: exp.Name, Kind: webbridge.KindProperty, Settable: g.Mutable})
		}
	}
	return c, nil
}

func describeFunction(name string, def api.FunctionDefinition) (function, bool) {
	if def == nil {
		return function{}, false
	}
	fn := function{export: name}
	for _, p := range def.ParamTypes() {
		t, ok := witType(p)
		if !ok {
			return function{}, false
		}
		fn.params = append(fn.params, t)
	}
	for _, r := range def.ResultTypes() {
		t, ok := witType(r)
		if !ok {
			return function{}, false
		}
		fn.results = append(fn.results, t)
	}
	return fn, true
}

func (c *Class) add(m webbridge.Member) {
	c.index[m.Name] = len(c.members)
	c.members = append(c.members, m)
}

// Lookup returns the member for an export name; "" is the initializer.
func (c *Class) Lookup(name string) (webbridge.Member, bool) {
	i, ok := c.index[name]
	if !ok {
		return webbridge.Member{}, false
	}
	return c.members[i], true
}

// Members returns the initializer followed by exports in module order.
func (c *Class) Members() []webbridge.Member {
	out := make([]webbridge.Member, len(c.members))
	copy(out, c.members)
	return out
}

// Signature renders the WIT signature of an exported function.
func (c *Class) Signature(name string) (string, bool) {
	fn, ok := c.funcs[name]
	if !ok {
		return "", false
	}
	s := "func("
	for i, p := range fn.params {
		if i > 0 {
			s += ", "
		}
		s += witTypeStr(p)
	}
	s += ")"
	switch len(fn.results) {
	case 0:
	case 1:
		s += " -> " + witTypeStr(fn.results[0])
	default:
		s += " -> tuple<"
		for i, r := range fn.results {
			if i > 0 {
				s += ", "
			}
			s += witTypeStr(r)
		}
		s += ">"
	}
	return s, true
}

// Functions returns the script-visible function names in sorted order.
func (c *Class) Functions() []string {
	names := make([]string, 0, len(c.funcs))
	for n := range c.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New instantiates the module.
func (c *Class) New(ctx context.Context) (*Object, error) {
	mod, err := c.rt.InstantiateModule(ctx, c.compiled, c.module)
	if err != nil {
		return nil, errors.Instantiation(errors.PhaseInvoke, "module", err)
	}
	return &Object{class: c, mod: mod}, nil
}

// Construct instantiates the module for a script constructor call. Modules
// take no constructor arguments.
func (c *Class) Construct(args []any) (any, error) {
	if len(args) > 0 {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "module constructors take no arguments")
	}
	return c.New(context.Background())
}

// Close releases the compiled module. Instances must be closed separately.
func (c *Class) Close(ctx context.Context) error {
	return c.compiled.Close(ctx)
}
