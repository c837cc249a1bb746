package dispatch

import "errors"

// Sentinel errors for the dispatch queue.
var (
	// ErrAlreadyRunning is returned when Start is called on a running queue.
	ErrAlreadyRunning = errors.New("dispatch queue is already running")

	// ErrNotRunning is returned when posting to or stopping a stopped queue.
	ErrNotRunning = errors.New("dispatch queue is not running")

	// ErrQueueFull is returned when the queue cannot accept more work.
	ErrQueueFull = errors.New("dispatch queue is full")

	// ErrNilTask is returned when a nil closure is posted.
	ErrNilTask = errors.New("task cannot be nil")
)
