// Package playback replays macro event sequences through an injected
// input synthesizer, honoring per-event delays and the macro's cycle
// mode. Playback runs on its own goroutine and stops only between
// passes; an in-flight pass always completes.
package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gamebridge/internal/input/key"
	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/macro"
	"github.com/google/uuid"
)

// Synthesizer performs synthesized input actions. The Windows
// implementation lives in the platform package; tests use recorders.
type Synthesizer interface {
	KeyDown(key.Code) error
	KeyUp(key.Code) error
	Button(macro.Button, macro.Edge) error
	Move(x, y int) error
}

// HoldState reports whether a key is currently held down. Used by the
// hold cycle mode to decide whether to start another pass.
type HoldState func(key.Code) bool

// Result describes how a playback run ended.
type Result struct {
	// MacroID is the macro that was played.
	MacroID uuid.UUID
	// Passes is the number of completed passes.
	Passes int
	// Cancelled is true if Cancel ended the run.
	Cancelled bool
	// Err is the synthesis error that aborted the run, if any.
	Err error
}

// Notify receives the result when a run ends. Called from the playback
// goroutine.
type Notify func(Result)

// Engine plays one macro at a time.
type Engine struct {
	synth  Synthesizer
	hold   HoldState
	notify Notify
	log    *logging.Logger

	mu      sync.Mutex
	playing atomic.Bool
	cancel  atomic.Bool
	toggled atomic.Bool
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithHoldState sets the hold-key probe for the hold cycle mode.
// Without one, hold-mode macros play a single pass.
func WithHoldState(h HoldState) Option {
	return func(e *Engine) {
		if h != nil {
			e.hold = h
		}
	}
}

// WithNotify sets the completion callback.
func WithNotify(n Notify) Option {
	return func(e *Engine) {
		if n != nil {
			e.notify = n
		}
	}
}

// NewEngine creates an idle engine synthesizing through synth.
func NewEngine(synth Synthesizer, log *logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Null
	}
	e := &Engine{
		synth:  synth,
		hold:   func(key.Code) bool { return false },
		notify: func(Result) {},
		log:    log.WithComponent("playback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Play starts replaying the macro on a new goroutine. Only one macro
// may play at a time.
func (e *Engine) Play(def macro.Definition) error {
	if len(def.Events) == 0 {
		return ErrNoEvents
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playing.Load() {
		return ErrAlreadyPlaying
	}

	// Copy so later store edits cannot race the running pass.
	events := make([]macro.Event, len(def.Events))
	copy(events, def.Events)

	cycle := def.Cycle.Normalize()
	holdKey := key.CodeNone
	if def.Shortcut != nil {
		holdKey = def.Shortcut.Key
	}

	e.playing.Store(true)
	e.cancel.Store(false)
	e.toggled.Store(false)
	e.done = make(chan struct{})

	go e.run(def.ID, events, cycle, holdKey, e.done)

	e.log.Info("playback started for macro %s (%s)", def.ID, cycle)
	return nil
}

// Cancel requests a stop. The in-flight pass completes; no further pass
// starts. Safe to call when idle.
func (e *Engine) Cancel() {
	e.cancel.Store(true)
}

// Toggle signals that the trigger chord was observed again. A macro in
// toggle mode halts before its next pass.
func (e *Engine) Toggle() {
	e.toggled.Store(true)
}

// IsPlaying returns true while a run is in progress.
func (e *Engine) IsPlaying() bool {
	return e.playing.Load()
}

// Wait blocks until the current run ends. Returns immediately if idle.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// run executes passes until the cycle policy, a cancel, or a synthesis
// error ends the run.
func (e *Engine) run(id uuid.UUID, events []macro.Event, cycle macro.CycleMode, holdKey key.Code, done chan struct{}) {
	result := Result{MacroID: id}

	defer func() {
		e.playing.Store(false)
		close(done)
		if result.Cancelled {
			e.log.Info("playback cancelled for macro %s after %d passes", id, result.Passes)
		} else {
			e.log.Info("playback finished for macro %s after %d passes", id, result.Passes)
		}
		e.notify(result)
	}()

	for {
		if err := e.pass(events); err != nil {
			result.Err = err
			return
		}
		result.Passes++

		if e.cancel.Load() {
			result.Cancelled = true
			return
		}

		switch cycle.Kind {
		case macro.CycleFixed:
			if result.Passes >= cycle.Count {
				return
			}
		case macro.CycleHold:
			if holdKey == key.CodeNone || !e.hold(holdKey) {
				return
			}
		case macro.CycleToggle:
			if e.toggled.Load() {
				return
			}
		default:
			return
		}
	}
}

// pass synthesizes every event once, pausing on delay events.
func (e *Engine) pass(events []macro.Event) error {
	for _, ev := range events {
		var err error
		switch ev.Kind {
		case macro.KindKeyDown:
			err = e.synth.KeyDown(ev.Key)
		case macro.KindKeyUp:
			err = e.synth.KeyUp(ev.Key)
		case macro.KindMouseButton:
			err = e.synth.Button(ev.Button, ev.Edge)
		case macro.KindCursorMove:
			err = e.synth.Move(ev.X, ev.Y)
		case macro.KindDelay:
			time.Sleep(time.Duration(ev.DelayMS) * time.Millisecond)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
