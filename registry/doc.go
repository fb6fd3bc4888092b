// Package registry provides the instance table of a channel.
//
// The table maps small non-negative integer ids to bindings. Id 0 is the
// principal instance created at bind time; other ids are chosen by the
// script side when it constructs proxies.
//
//	reg := registry.New()
//	reg.Insert(registry.Principal, principal)
//	reg.Insert(1, instance)
//
//	b, ok := reg.Get(1)
//	reg.Remove(1)
//
// # Observers
//
// Register observers to track instance lifecycle events:
//
//	reg.Subscribe(registry.ObserverFunc(func(e registry.Event) {
//	    switch e.Type {
//	    case registry.EventCreated:
//	        log.Printf("instance %d created", e.ID)
//	    case registry.EventDisposed:
//	        log.Printf("instance %d disposed", e.ID)
//	    }
//	}))
//
// # Concurrency
//
// A Registry is not synchronized. It is owned by one channel, which confines
// all access to its dispatch path.
package registry
