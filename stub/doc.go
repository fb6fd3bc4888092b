// Package stub generates the script-side proxy for a bound native object.
//
// The generated source is one expression that creates a proxy through the
// proxy runtime and defines a forwarding function for every method and an
// accessor for every property:
//
//	(function(exports) {
//	exports["greet"] = __bridge.invokeNative.bind(null, exports, "greet#1");
//	__bridge.defineProperty(exports, "x", 5, true);
//	})(__bridge.createPlugin("1", "app.demo", null));
//
// The last argument of createPlugin selects the proxy shape:
//
//	null                 plain object
//	function(){...}      callable object; calling it invokes the base method
//	"#N"                 constructor; new posts "+" with the arguments
//
// Constructor proxies do not prebind methods, since each instance carries
// its own target id; their methods forward this instead.
//
// # Runtime
//
// Runtime holds the proxy runtime that defines __bridge. It must run in a
// document before any stub. Running it more than once is harmless.
//
// Generate is deterministic: the same descriptor and property values yield
// byte-identical output.
package stub
