// Package dispatch provides the FIFO queue that marshals work from hook
// callbacks and IPC receive loops onto the thread that owns UI state.
// Enqueueing never blocks the poster; effects are observed later on the
// consuming loop.
package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// defaultQueueSize bounds how much work may be pending before posts are
// rejected instead of blocking.
const defaultQueueSize = 1024

// PanicHandler is called when posted work panics.
type PanicHandler func(recovered any, stack []byte)

// Queue executes posted closures one at a time, in post order, on a
// single consumer goroutine.
type Queue struct {
	size         int
	panicHandler PanicHandler

	mu      sync.Mutex // protects tasks channel lifecycle
	tasks   chan func()
	running atomic.Bool
	wg      sync.WaitGroup

	posted    atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithSize sets the pending-work capacity.
func WithSize(size int) Option {
	return func(q *Queue) {
		if size > 0 {
			q.size = size
		}
	}
}

// WithPanicHandler sets the handler invoked when posted work panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(q *Queue) {
		if h != nil {
			q.panicHandler = h
		}
	}
}

// New creates a stopped queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		size:         defaultQueueSize,
		panicHandler: func(any, []byte) {},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the consumer goroutine.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running.Load() {
		return ErrAlreadyRunning
	}

	q.tasks = make(chan func(), q.size)
	q.running.Store(true)

	q.wg.Add(1)
	go q.consume(q.tasks)
	return nil
}

// Stop drains remaining work and stops the consumer. It waits until the
// consumer finishes or the context is cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running.Load() {
		q.mu.Unlock()
		return ErrNotRunning
	}
	q.running.Store(false)
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post enqueues fn for execution on the consumer. It never blocks:
// if the queue is full, fn is rejected with ErrQueueFull. The lock
// keeps the enqueue atomic with respect to Stop closing the channel.
func (q *Queue) Post(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running.Load() {
		return ErrNotRunning
	}

	select {
	case q.tasks <- fn:
		q.posted.Add(1)
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet executed.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tasks == nil {
		return 0
	}
	return len(q.tasks)
}

// Stats reports queue counters.
func (q *Queue) Stats() (posted, processed, dropped, panicked uint64) {
	return q.posted.Load(), q.processed.Load(), q.dropped.Load(), q.panicked.Load()
}

// consume runs tasks in FIFO order until the channel closes.
func (q *Queue) consume(tasks <-chan func()) {
	defer q.wg.Done()
	for fn := range tasks {
		q.run(fn)
	}
}

// run executes one task, containing panics.
func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			q.panicHandler(r, debug.Stack())
		}
	}()
	fn()
	q.processed.Add(1)
}
