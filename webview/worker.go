package webview

import (
	"context"
	"fmt"
	"sync"
)

// worker runs page work on one goroutine. Its backlog is unbounded so work
// may be posted from the worker itself.
type worker struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	signal  chan struct{}
	done    chan struct{}
}

func newWorker() *worker {
	w := &worker{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	defer close(w.done)
	for range w.signal {
		for {
			w.mu.Lock()
			if len(w.pending) == 0 {
				closed := w.closed
				w.mu.Unlock()
				if closed {
					return
				}
				break
			}
			fn := w.pending[0]
			w.pending[0] = nil
			w.pending = w.pending[1:]
			w.mu.Unlock()
			fn()
		}
	}
}

// post queues fn. It reports false once the worker is closed.
func (w *worker) post(fn func()) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = append(w.pending, fn)
	w.mu.Unlock()
	w.wake()
	return true
}

func (w *worker) wake() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// do runs fn on the worker and waits for it. Panics in fn are returned as
// errors. It must not be called from the worker.
func (w *worker) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	ok := w.post(func() {
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		result <- protect(fn)
	})
	if !ok {
		return errClosed
	}
	select {
	case err := <-result:
		return err
	case <-w.done:
		select {
		case err := <-result:
			return err
		default:
			return errClosed
		}
	}
}

// close stops the worker after pending work has run.
func (w *worker) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	w.wake()
}

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page worker: %v", r)
		}
	}()
	return fn()
}
