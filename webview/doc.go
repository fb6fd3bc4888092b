// Package webview provides an in-process host endpoint that runs HTML
// documents in a JavaScript engine.
//
// A Page behaves like an embedded browser view as far as a channel can
// tell: scripts reach native code through messageHandlers[name].postMessage,
// user scripts are injected at document start or end, and srcdoc iframes
// become sub-frames that only receive user scripts not limited to the main
// frame.
//
//	page := webview.New(webview.WithLogger(log))
//	defer page.Close()
//
//	ch := channel.New()
//	ch.Bind(page.Ref(), &Counter{}, "app.counter")
//
//	page.LoadHTML(ctx, `<script>app.counter.add(1)</script>`)
//	ch.Sync()
//
// Every document load starts from fresh script runtimes. All engine access
// happens on the page's own goroutine, so message handlers run there too;
// they must not call Evaluate, LoadHTML or Frames, which wait for that
// goroutine. EvaluateScript only queues work and is safe anywhere.
//
// Script console output is written to the page logger.
package webview
