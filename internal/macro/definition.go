package macro

import (
	"fmt"

	"github.com/dshills/gamebridge/internal/shortcut"
	"github.com/google/uuid"
)

// maxNameLength bounds macro names for tray menu display.
const maxNameLength = 50

// CycleKind selects the repeat policy for playback.
type CycleKind uint8

const (
	// CycleFixed replays the sequence a fixed number of times.
	CycleFixed CycleKind = iota
	// CycleHold replays while the designated hold key stays down.
	CycleHold
	// CycleToggle replays until the trigger chord is observed again.
	CycleToggle
)

var cycleNames = map[CycleKind]string{
	CycleFixed:  "fixed",
	CycleHold:   "hold",
	CycleToggle: "toggle",
}

// String returns the persistence name of the cycle kind.
func (k CycleKind) String() string {
	if name, ok := cycleNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k CycleKind) MarshalText() ([]byte, error) {
	name, ok := cycleNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: cycle kind %d", ErrInvalidDefinition, k)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CycleKind) UnmarshalText(text []byte) error {
	for kind, name := range cycleNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: cycle kind %q", ErrInvalidDefinition, string(text))
}

// CycleMode is the repeat policy of a macro. The zero value replays once.
type CycleMode struct {
	Kind CycleKind `json:"kind"`
	// Count is the pass count for CycleFixed. Ignored otherwise.
	Count int `json:"count,omitempty"`
}

// FixedCount returns a fixed-count cycle mode. Counts below one are
// normalized to one.
func FixedCount(n int) CycleMode {
	if n < 1 {
		n = 1
	}
	return CycleMode{Kind: CycleFixed, Count: n}
}

// UntilKeyReleased returns the hold cycle mode.
func UntilKeyReleased() CycleMode {
	return CycleMode{Kind: CycleHold}
}

// UntilTogglePressed returns the toggle cycle mode.
func UntilTogglePressed() CycleMode {
	return CycleMode{Kind: CycleToggle}
}

// Normalize returns the mode with defaults applied: a fixed mode with no
// count replays once.
func (m CycleMode) Normalize() CycleMode {
	if m.Kind == CycleFixed && m.Count < 1 {
		m.Count = 1
	}
	return m
}

// Validate checks the cycle mode.
func (m CycleMode) Validate() error {
	if _, ok := cycleNames[m.Kind]; !ok {
		return fmt.Errorf("%w: cycle kind %d", ErrInvalidDefinition, m.Kind)
	}
	if m.Kind == CycleFixed && m.Count < 1 {
		return fmt.Errorf("%w: fixed cycle count must be at least 1", ErrInvalidDefinition)
	}
	return nil
}

// String returns a display form like "3 times" or "until released".
func (m CycleMode) String() string {
	switch m.Kind {
	case CycleFixed:
		n := m.Normalize().Count
		if n == 1 {
			return "once"
		}
		return fmt.Sprintf("%d times", n)
	case CycleHold:
		return "while key held"
	case CycleToggle:
		return "until toggled"
	default:
		return "unknown"
	}
}

// Definition is a complete macro: an ordered event sequence plus its
// trigger and repeat policy. Owned by the Store; mutated only through
// store operations.
type Definition struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	ProfileID uuid.UUID       `json:"profile_id"`
	Events    []Event         `json:"events"`
	Cycle     CycleMode       `json:"cycle"`
	Shortcut  *shortcut.Chord `json:"shortcut,omitempty"`
}

// NewDefinition creates an empty macro owned by the given profile.
func NewDefinition(name string, profileID uuid.UUID) Definition {
	return Definition{
		ID:        uuid.New(),
		Name:      name,
		ProfileID: profileID,
		Cycle:     FixedCount(1),
	}
}

// Validate checks the definition. Empty event sequences are allowed;
// a macro is built up by recording or insertion after creation.
func (d Definition) Validate() error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDefinition)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDefinition, maxNameLength)
	}
	if err := d.Cycle.Validate(); err != nil {
		return err
	}
	if d.Shortcut != nil {
		if err := d.Shortcut.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
	}
	for i, ev := range d.Events {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// clone returns a deep copy; the event slice is never shared.
func (d Definition) clone() Definition {
	out := d
	if d.Events != nil {
		out.Events = make([]Event, len(d.Events))
		copy(out.Events, d.Events)
	}
	if d.Shortcut != nil {
		chord := *d.Shortcut
		out.Shortcut = &chord
	}
	return out
}
