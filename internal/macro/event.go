package macro

import (
	"fmt"

	"github.com/dshills/gamebridge/internal/input/key"
)

// EventKind discriminates the macro event variants.
type EventKind uint8

const (
	// KindKeyDown is a key press.
	KindKeyDown EventKind = iota + 1
	// KindKeyUp is a key release.
	KindKeyUp
	// KindMouseButton is a mouse button edge.
	KindMouseButton
	// KindCursorMove moves the cursor to an absolute position.
	KindCursorMove
	// KindDelay pauses playback for a whole number of milliseconds.
	KindDelay
)

var kindNames = map[EventKind]string{
	KindKeyDown:     "key_down",
	KindKeyUp:       "key_up",
	KindMouseButton: "mouse_button",
	KindCursorMove:  "cursor_move",
	KindDelay:       "delay",
}

// String returns the persistence name of the kind.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidEvent, k)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidEvent, string(text))
}

// Button identifies a mouse button.
type Button uint8

const (
	// ButtonLeft is the left mouse button.
	ButtonLeft Button = iota + 1
	// ButtonRight is the right mouse button.
	ButtonRight
	// ButtonMiddle is the middle mouse button.
	ButtonMiddle
)

var buttonNames = map[Button]string{
	ButtonLeft:   "left",
	ButtonRight:  "right",
	ButtonMiddle: "middle",
}

// String returns the persistence name of the button.
func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (b Button) MarshalText() ([]byte, error) {
	name, ok := buttonNames[b]
	if !ok {
		return nil, fmt.Errorf("%w: button %d", ErrInvalidEvent, b)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Button) UnmarshalText(text []byte) error {
	for button, name := range buttonNames {
		if name == string(text) {
			*b = button
			return nil
		}
	}
	return fmt.Errorf("%w: button %q", ErrInvalidEvent, string(text))
}

// Edge is the direction of a button transition.
type Edge uint8

const (
	// EdgeDown is a button press.
	EdgeDown Edge = iota + 1
	// EdgeUp is a button release.
	EdgeUp
)

// String returns the persistence name of the edge.
func (e Edge) String() string {
	switch e {
	case EdgeDown:
		return "down"
	case EdgeUp:
		return "up"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Edge) MarshalText() ([]byte, error) {
	if e != EdgeDown && e != EdgeUp {
		return nil, fmt.Errorf("%w: edge %d", ErrInvalidEvent, e)
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Edge) UnmarshalText(text []byte) error {
	switch string(text) {
	case "down":
		*e = EdgeDown
	case "up":
		*e = EdgeUp
	default:
		return fmt.Errorf("%w: edge %q", ErrInvalidEvent, string(text))
	}
	return nil
}

// Event is one step of a macro sequence. Events are immutable values;
// position within the sequence is the sole ordering key.
type Event struct {
	Kind    EventKind `json:"kind"`
	Key     key.Code  `json:"key,omitempty"`
	Button  Button    `json:"button,omitempty"`
	Edge    Edge      `json:"edge,omitempty"`
	X       int       `json:"x,omitempty"`
	Y       int       `json:"y,omitempty"`
	DelayMS int64     `json:"delay_ms,omitempty"`
}

// KeyDown creates a key press event.
func KeyDown(code key.Code) Event {
	return Event{Kind: KindKeyDown, Key: code}
}

// KeyUp creates a key release event.
func KeyUp(code key.Code) Event {
	return Event{Kind: KindKeyUp, Key: code}
}

// MouseButton creates a button edge event.
func MouseButton(button Button, edge Edge) Event {
	return Event{Kind: KindMouseButton, Button: button, Edge: edge}
}

// CursorMove creates an absolute cursor move event. The coordinates are
// supplied by the caller; cursor positions are never captured.
func CursorMove(x, y int) Event {
	return Event{Kind: KindCursorMove, X: x, Y: y}
}

// Delay creates a pause event. Delays are whole milliseconds.
func Delay(ms int64) Event {
	return Event{Kind: KindDelay, DelayMS: ms}
}

// CanonicalButtonEvents returns the six button events offered by the
// macro editor's insert menu.
func CanonicalButtonEvents() []Event {
	return []Event{
		MouseButton(ButtonLeft, EdgeDown),
		MouseButton(ButtonLeft, EdgeUp),
		MouseButton(ButtonRight, EdgeDown),
		MouseButton(ButtonRight, EdgeUp),
		MouseButton(ButtonMiddle, EdgeDown),
		MouseButton(ButtonMiddle, EdgeUp),
	}
}

// Validate checks internal consistency of the event.
func (e Event) Validate() error {
	switch e.Kind {
	case KindKeyDown, KindKeyUp:
		if e.Key == key.CodeNone {
			return fmt.Errorf("%w: key event without key", ErrInvalidEvent)
		}
	case KindMouseButton:
		if _, ok := buttonNames[e.Button]; !ok {
			return fmt.Errorf("%w: button %d", ErrInvalidEvent, e.Button)
		}
		if e.Edge != EdgeDown && e.Edge != EdgeUp {
			return fmt.Errorf("%w: edge %d", ErrInvalidEvent, e.Edge)
		}
	case KindCursorMove:
		// Any coordinates are acceptable; multi-monitor layouts use
		// negative values.
	case KindDelay:
		if e.DelayMS < 0 {
			return fmt.Errorf("%w: negative delay", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// String returns a display form like "A down", "left click up", or
// "delay 120ms".
func (e Event) String() string {
	switch e.Kind {
	case KindKeyDown:
		return fmt.Sprintf("%s down", e.Key)
	case KindKeyUp:
		return fmt.Sprintf("%s up", e.Key)
	case KindMouseButton:
		return fmt.Sprintf("%s click %s", e.Button, e.Edge)
	case KindCursorMove:
		return fmt.Sprintf("move (%d, %d)", e.X, e.Y)
	case KindDelay:
		return fmt.Sprintf("delay %dms", e.DelayMS)
	default:
		return "unknown event"
	}
}
