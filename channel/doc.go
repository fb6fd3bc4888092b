// Package channel connects a native object to scripts running in a host
// endpoint.
//
// A Channel registers one named message handler on the endpoint and keeps a
// registry of the native instances scripts can address. Id 0 is the
// principal instance given to Bind; scripts create further instances with
// the "+" opcode.
//
//	c := channel.New(channel.WithLogger(log))
//	principal, err := c.Bind(host.Weak(page), &Counter{}, "app.counter")
//
// # Messages
//
// Scripts post records with three reserved keys:
//
//	{$opcode: "value", $target: 0, $operand: 7}       set property
//	{$opcode: "add", $target: 0, $operand: [1]}       invoke method
//	{$opcode: "+", $target: 1, $operand: [args...]}   create instance 1
//	{$opcode: "-", $target: 1}                        dispose instance 1
//	{$opcode: "-", $target: 0}                        unbind the channel
//
// $target defaults to 0. Records without $opcode are raw messages, handed
// to a principal implementing webbridge.RawMessageReceiver. Bodies may
// arrive as decoded maps, JSON text, or CBOR bytes.
//
// Nothing is sent back to the script side. Dropped messages are logged by
// HandleMessage and returned as errors by Dispatch.
//
// # Lifecycle
//
// A channel is bound at most once. Unbind clears the registry, removes the
// handler and user scripts, and leaves the channel inert; its descriptor
// stays available. Every operation tolerates an endpoint that has gone
// away.
//
// # Concurrency
//
// Messages from HandleMessage run one at a time on the channel's Queue,
// a SerialQueue by default. Native code runs without the channel lock held,
// so it may call the ScriptContext it was given. Separate channels share
// nothing but the name Sequence.
package channel
