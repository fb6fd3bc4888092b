// Package host defines what a channel needs from the environment that runs
// scripts: named message handlers, user scripts injected on document load,
// and script evaluation.
//
// Channels never own their endpoint. They hold a Ref and resolve it on every
// operation, doing nothing once the endpoint is gone.
//
//	ref := host.Weak(page)        // gone once page is collected
//	h := host.NewHandle(page)     // gone once h.Release is called
package host
