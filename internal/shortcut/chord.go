package shortcut

import (
	"strings"

	"github.com/dshills/gamebridge/internal/input/key"
)

// Chord is a global shortcut trigger: a set of modifier keys plus one
// confirmation key. A chord with no modifiers is invalid so that plain
// typing can never trigger a macro.
type Chord struct {
	// Modifiers is the set of held modifier keys.
	Modifiers key.Modifier `json:"modifiers"`

	// Key is the confirmation key: A-Z, 0-9, or F1-F12.
	Key key.Code `json:"key"`
}

// Validate checks that the chord can be registered as a global shortcut.
func (c Chord) Validate() error {
	if c.Modifiers.IsEmpty() {
		return ErrBareKey
	}
	if !c.Key.IsConfirmationKey() {
		return ErrInvalidKey
	}
	return nil
}

// String returns the display form, e.g. "Ctrl+Shift+F5".
func (c Chord) String() string {
	mods := c.Modifiers.String()
	if mods == "" {
		return c.Key.String()
	}
	return mods + "+" + c.Key.String()
}

// ParseChord parses the display form back into a Chord. The last
// "+"-separated token is the confirmation key; everything before it must
// be modifier names.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Chord{}, ErrInvalidKey
	}

	code, err := key.Parse(parts[len(parts)-1])
	if err != nil {
		return Chord{}, ErrInvalidKey
	}

	mods := key.ModNone
	for _, part := range parts[:len(parts)-1] {
		mod := key.ParseModifier(part)
		if mod == key.ModNone {
			return Chord{}, ErrInvalidKey
		}
		mods = mods.With(mod)
	}

	chord := Chord{Modifiers: mods, Key: code}
	if err := chord.Validate(); err != nil {
		return Chord{}, err
	}
	return chord, nil
}
