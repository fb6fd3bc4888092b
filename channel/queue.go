package channel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Queue runs submitted work one item at a time.
type Queue interface {
	// Submit schedules fn. It reports false if the queue was closed.
	Submit(fn func()) bool
	// Wait blocks until work submitted before the call has run.
	// It must not be called from queued work.
	Wait()
	Close()
}

// SerialQueue serializes work on a dedicated goroutine.
type SerialQueue struct {
	logger   *zap.Logger
	requests chan func()
	quit     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewSerialQueue creates a SerialQueue and starts its goroutine.
func NewSerialQueue(l *zap.Logger) *SerialQueue {
	if l == nil {
		l = Logger()
	}
	q := &SerialQueue{
		logger:   l,
		requests: make(chan func(), 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *SerialQueue) loop() {
	defer close(q.stopped)
	for {
		select {
		case fn := <-q.requests:
			q.run(fn)
		case <-q.quit:
			for {
				select {
				case fn := <-q.requests:
					q.run(fn)
				default:
					return
				}
			}
		}
	}
}

func (q *SerialQueue) run(fn func()) {
	if err := execute(fn); err != nil {
		q.logger.Error("queued work panicked", zap.Error(err))
	}
}

// execute runs fn, recovering from panics.
func execute(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

// Submit queues fn. It reports false once Close was called.
func (q *SerialQueue) Submit(fn func()) bool {
	select {
	case <-q.quit:
		return false
	default:
	}
	select {
	case q.requests <- fn:
		return true
	case <-q.quit:
		return false
	}
}

// Wait blocks until work submitted before the call has run, or the queue
// has stopped.
func (q *SerialQueue) Wait() {
	done := make(chan struct{})
	if !q.Submit(func() { close(done) }) {
		<-q.stopped
		return
	}
	select {
	case <-done:
	case <-q.stopped:
	}
}

// Close stops accepting work. Work already queued still runs. Close does
// not wait, so it is safe to call from queued work.
func (q *SerialQueue) Close() {
	q.once.Do(func() { close(q.quit) })
}

// InlineQueue runs work on the submitting goroutine. Use it when the host
// already delivers messages one at a time.
type InlineQueue struct {
	Logger *zap.Logger
}

// Submit runs fn immediately. Panics are logged.
func (q InlineQueue) Submit(fn func()) bool {
	if err := execute(fn); err != nil {
		l := q.Logger
		if l == nil {
			l = Logger()
		}
		l.Error("inline work panicked", zap.Error(err))
	}
	return true
}

// Wait returns immediately; submitted work has already run.
func (InlineQueue) Wait() {}

// Close is a no-op.
func (InlineQueue) Close() {}
