// Package click turns raw tray-icon pointer clicks into single, double,
// and right-click intents using a timer-driven state machine.
package click

import (
	"sync"
	"time"
)

// DefaultWindow is the disambiguation window separating a single click
// from the first half of a double click.
const DefaultWindow = 500 * time.Millisecond

// Intent is the classified meaning of a click sequence.
type Intent uint8

const (
	// IntentSingle is a lone left click, fired after the window expires.
	IntentSingle Intent = iota + 1
	// IntentDouble is two left clicks inside the window, fired immediately
	// on the second click.
	IntentDouble
	// IntentRight is a right click, fired immediately.
	IntentRight
)

// String returns a string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentSingle:
		return "single"
	case IntentDouble:
		return "double"
	case IntentRight:
		return "right"
	default:
		return "unknown"
	}
}

// Sink receives classified intents. Single intents are delivered from the
// timer goroutine; double and right intents from the caller's goroutine.
type Sink func(Intent)

// Disambiguator is the per-tray-icon click state machine. It is either
// idle or holding one pending left click.
type Disambiguator struct {
	mu      sync.Mutex
	window  time.Duration
	sink    Sink
	timer   *time.Timer
	pending bool
}

// New creates a disambiguator delivering intents to sink.
// A non-positive window falls back to DefaultWindow.
func New(window time.Duration, sink Sink) *Disambiguator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Disambiguator{
		window: window,
		sink:   sink,
	}
}

// LeftClick records a left-button click. The first click arms the
// disambiguation timer; a second click before expiry cancels it and fires
// a double. A third click after the double starts a fresh cycle.
func (d *Disambiguator) LeftClick() {
	d.mu.Lock()
	if d.pending {
		d.timer.Stop()
		d.timer = nil
		d.pending = false
		d.mu.Unlock()
		d.sink(IntentDouble)
		return
	}

	d.pending = true
	d.timer = time.AfterFunc(d.window, d.expire)
	d.mu.Unlock()
}

// RightClick fires a right intent immediately. Right clicks never
// interact with the left-click timer.
func (d *Disambiguator) RightClick() {
	d.sink(IntentRight)
}

// Reset discards any pending click without firing.
func (d *Disambiguator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		d.timer.Stop()
		d.timer = nil
		d.pending = false
	}
}

// expire fires a single intent if the pending click was not paired.
func (d *Disambiguator) expire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.sink(IntentSingle)
}
