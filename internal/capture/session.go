// Package capture owns the exclusive system-wide keyboard tap and turns
// raw key transitions into macro events while a recording is armed.
// At most one recording session is active per process; capture is fully
// system-wide, including while this application has focus. Mouse input is
// never captured; pointer-derived events enter macros only through the
// store's insert operations.
package capture

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/macro"
	"github.com/google/uuid"
)

const (
	// defaultGapFloor is the smallest inter-key gap worth accumulating.
	defaultGapFloor = 10 * time.Millisecond

	// defaultCoalesceFloor is the smallest accumulated gap stored as an
	// explicit delay event. Smaller gaps are treated as jitter.
	defaultCoalesceFloor = 50 * time.Millisecond

	// defaultQueueSize bounds transitions buffered between the tap
	// callback and the consuming goroutine.
	defaultQueueSize = 256
)

// Session is the singleton recorder. It arms the keyboard tap, buffers
// transitions off the hook thread, and appends translated events to the
// target macro.
type Session struct {
	tap   Tap
	store *macro.Store
	log   *logging.Logger

	gapFloor      time.Duration
	coalesceFloor time.Duration
	queueSize     int

	mu     sync.Mutex
	active bool
	target uuid.UUID
	queue  chan Transition
	done   chan struct{}

	dropped atomic.Uint64
}

// Option configures a Session.
type Option func(*Session)

// WithGapFloor sets the smallest inter-key gap that accumulates delay.
func WithGapFloor(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.gapFloor = d
		}
	}
}

// WithCoalesceFloor sets the smallest accumulated gap stored as a delay
// event.
func WithCoalesceFloor(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.coalesceFloor = d
		}
	}
}

// WithQueueSize sets the transition buffer capacity.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// NewSession creates an idle session recording into store through tap.
func NewSession(tap Tap, store *macro.Store, log *logging.Logger, opts ...Option) *Session {
	if log == nil {
		log = logging.Null
	}
	s := &Session{
		tap:           tap,
		store:         store,
		log:           log.WithComponent("capture"),
		gapFloor:      defaultGapFloor,
		coalesceFloor: defaultCoalesceFloor,
		queueSize:     defaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the tap and begins recording into the macro. The macro's
// existing events are cleared before the first capture. Starting while a
// session is active returns macro.ErrRecordingConflict and leaves the
// active session untouched.
func (s *Session) Start(target uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return macro.ErrRecordingConflict
	}

	if err := s.store.BeginRecording(target); err != nil {
		return err
	}

	queue := make(chan Transition, s.queueSize)
	done := make(chan struct{})

	if err := s.tap.Install(func(t Transition) {
		// Hook thread: enqueue and return. Never block.
		select {
		case queue <- t:
		default:
			s.dropped.Add(1)
		}
	}); err != nil {
		if endErr := s.store.EndRecording(target); endErr != nil {
			s.log.Error("releasing recording mark: %v", endErr)
		}
		return fmt.Errorf("%w: %v", ErrHookInstall, err)
	}

	s.active = true
	s.target = target
	s.queue = queue
	s.done = done

	go s.consume(queue, done)

	s.log.Info("recording started for macro %s", target)
	return nil
}

// Stop disarms the tap, drains buffered transitions, and returns the
// number of events recorded.
func (s *Session) Stop() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return 0, ErrNoSession
	}

	// Remove guarantees no further callbacks, so closing the queue is
	// safe afterwards.
	if err := s.tap.Remove(); err != nil {
		s.log.Error("removing keyboard tap: %v", err)
	}
	close(s.queue)
	<-s.done

	count, err := s.store.EventCount(s.target)
	if err != nil {
		count = 0
	}
	if err := s.store.EndRecording(s.target); err != nil {
		s.log.Error("releasing recording mark: %v", err)
	}

	if n := s.dropped.Swap(0); n > 0 {
		s.log.Warn("dropped %d transitions during recording", n)
	}

	s.active = false
	s.target = uuid.Nil
	s.queue = nil
	s.done = nil

	s.log.Info("recording stopped, %d events captured", count)
	return count, nil
}

// Active reports the macro being recorded, if any.
func (s *Session) Active() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.active
}

// consume translates transitions into macro events. Gaps between
// transitions accumulate; an accumulated gap above the coalesce floor is
// stored as one explicit delay event before the next key event, smaller
// gaps are discarded as jitter.
func (s *Session) consume(queue <-chan Transition, done chan<- struct{}) {
	defer close(done)

	var last time.Time
	var pending time.Duration

	for t := range queue {
		if !last.IsZero() {
			if gap := t.At.Sub(last); gap >= s.gapFloor {
				pending += gap
			}
		}
		last = t.At

		if pending > s.coalesceFloor {
			if err := s.store.AppendRecorded(macro.Delay(pending.Milliseconds())); err != nil {
				s.log.Error("appending delay: %v", err)
			}
		}
		pending = 0

		ev := macro.KeyUp(t.Code)
		if t.Down {
			ev = macro.KeyDown(t.Code)
		}
		if err := s.store.AppendRecorded(ev); err != nil {
			s.log.Error("appending %s: %v", ev, err)
		}
	}
}
