// Package shortcut maps modifier-chord hotkeys to macros and profile
// actions. Registration against the OS is best-effort; collisions with
// other processes are surfaced, never silently dropped.
package shortcut

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/gamebridge/internal/logging"
	"github.com/google/uuid"
)

// TargetKind identifies what a binding triggers.
type TargetKind uint8

const (
	// TargetMacro triggers macro playback.
	TargetMacro TargetKind = iota + 1
	// TargetProfile activates a profile.
	TargetProfile
)

// String returns a string representation of the target kind.
func (k TargetKind) String() string {
	switch k {
	case TargetMacro:
		return "macro"
	case TargetProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Binding associates a chord with a macro or profile action.
type Binding struct {
	Chord  Chord
	Kind   TargetKind
	Target uuid.UUID
}

// OSRegistrar registers chords with the operating system's global hotkey
// facility. Implementations live in the platform package.
type OSRegistrar interface {
	// Register claims the chord system-wide. Returns an error if another
	// process already owns it.
	Register(Chord) error

	// Unregister releases a previously registered chord.
	Unregister(Chord) error
}

// NoopRegistrar is an OSRegistrar that accepts every chord. Used on
// platforms without a global hotkey facility and in tests.
type NoopRegistrar struct{}

// Register implements OSRegistrar.
func (NoopRegistrar) Register(Chord) error { return nil }

// Unregister implements OSRegistrar.
func (NoopRegistrar) Unregister(Chord) error { return nil }

// Registry tracks chord bindings for this process and mirrors them into
// the OS hotkey facility.
type Registry struct {
	mu       sync.RWMutex
	os       OSRegistrar
	bindings map[Chord]Binding
	log      *logging.Logger
}

// NewRegistry creates a registry backed by the given OS registrar.
// A nil registrar means local-only tracking.
func NewRegistry(os OSRegistrar, log *logging.Logger) *Registry {
	if os == nil {
		os = NoopRegistrar{}
	}
	if log == nil {
		log = logging.Null
	}
	return &Registry{
		os:       os,
		bindings: make(map[Chord]Binding),
		log:      log.WithComponent("shortcut"),
	}
}

// Register binds a chord. The chord must validate, must not already be
// bound within this application, and must be accepted by the OS. On any
// failure the registry is unchanged and earlier bindings stay in effect.
func (r *Registry) Register(b Binding) error {
	if err := b.Chord.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bindings[b.Chord]; ok {
		r.log.Warn("chord %s already bound to %s %s", b.Chord, existing.Kind, existing.Target)
		return fmt.Errorf("%s: %w", b.Chord, ErrChordInUse)
	}

	if err := r.os.Register(b.Chord); err != nil {
		r.log.Warn("system rejected chord %s: %v", b.Chord, err)
		return fmt.Errorf("%s: %w: %v", b.Chord, ErrSystemRegistration, err)
	}

	r.bindings[b.Chord] = b
	r.log.Info("registered %s -> %s %s", b.Chord, b.Kind, b.Target)
	return nil
}

// Unregister releases a chord both locally and with the OS.
func (r *Registry) Unregister(c Chord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[c]; !ok {
		return fmt.Errorf("%s: %w", c, ErrChordNotBound)
	}

	delete(r.bindings, c)
	if err := r.os.Unregister(c); err != nil {
		// Local state already dropped; the stale OS registration is
		// reported but cannot be retained.
		r.log.Warn("unregistering chord %s with the system: %v", c, err)
	}
	return nil
}

// UnregisterTarget releases every chord bound to the given target.
// Returns the number of bindings removed.
func (r *Registry) UnregisterTarget(target uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for chord, b := range r.bindings {
		if b.Target != target {
			continue
		}
		delete(r.bindings, chord)
		if err := r.os.Unregister(chord); err != nil {
			r.log.Warn("unregistering chord %s with the system: %v", chord, err)
		}
		removed++
	}
	return removed
}

// Lookup returns the binding for a chord, if any.
func (r *Registry) Lookup(c Chord) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[c]
	return b, ok
}

// Bindings returns all bindings sorted by chord display form.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Chord.String() < result[j].Chord.String()
	})
	return result
}

// Clear releases every binding.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chord := range r.bindings {
		if err := r.os.Unregister(chord); err != nil {
			r.log.Warn("unregistering chord %s with the system: %v", chord, err)
		}
		delete(r.bindings, chord)
	}
}
