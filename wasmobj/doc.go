// Package wasmobj exposes WebAssembly modules as native objects.
//
// A compiled module becomes a Class: every exported function is a method
// and every exported global is a property, settable when the global is
// mutable. Values cross as WIT scalars (s32, s64, f32, f64); exports using
// other types are left out.
//
//	rt := wazero.NewRuntime(ctx)
//	class, err := wasmobj.Compile(ctx, rt, wasmBytes)
//	obj, err := class.New(ctx)
//	ch.Bind(page.Ref(), obj, "app.calc")
//
// The class carries an initializer, so the proxy is a constructor: scripts
// may create further instances with new app.calc(), each a separate module
// instance that is closed when its proxy is disposed.
package wasmobj
