// Package webbridge exposes native Go objects to scripts running in embedded
// web content and routes script calls back to the native instances.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	webbridge/          Root package with member, descriptor and binding contracts
//	├── channel/        Message dispatch and instance lifecycle for one bound object
//	├── stub/           Script-side proxy generation and the proxy runtime
//	├── describe/       Reflection-built and static type descriptors
//	├── binding/        Reflection-backed binding objects and value coercion
//	├── registry/       Instance id table with lifecycle observers
//	├── host/           Host endpoint contract and weak endpoint references
//	├── webview/        In-process host backed by a JavaScript engine
//	├── wasmobj/        Native objects implemented by WebAssembly modules
//	└── errors/         Structured error types for debugging
//
// # Quick Start
//
//	page := webview.New()
//	defer page.Close()
//
//	ch := channel.New()
//	if _, err := ch.Bind(page.Ref(), &Counter{}, "app.counter"); err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Unbind()
//
//	if err := page.LoadHTML(ctx, `<script>app.counter.add(2)</script>`); err != nil {
//	    log.Fatal(err)
//	}
//
// # Protocol
//
// Scripts talk to the native side through one message handler per channel.
// Each message is a record with $opcode, $target and $operand:
//
//	{$opcode: "x", $target: 0, $operand: 7}          set property x
//	{$opcode: "greet", $target: 0, $operand: ["hi"]}  call method greet
//	{$opcode: "+", $target: 1, $operand: []}          create instance 1
//	{$opcode: "-", $target: 1}                        dispose instance 1
//	{$opcode: "-", $target: 0}                        unbind the channel
//
// Nothing is sent back to the script as a reply. Native code that needs to
// talk to the script uses the ScriptContext handed to ScriptAware objects.
//
// # Thread Safety
//
// A Channel processes its messages one at a time on its own queue. Separate
// channels run independently. Bind and Unbind may be called from any goroutine.
package webbridge
