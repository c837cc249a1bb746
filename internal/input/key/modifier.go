package key

import (
	"fmt"
	"strings"
)

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key.
	ModAlt

	// ModWin indicates the Windows key.
	ModWin
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModWin) {
		parts = append(parts, "Win")
	}
	return strings.Join(parts, "+")
}

// MarshalText implements encoding.TextMarshaler using the "Ctrl+Alt" form.
func (m Modifier) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Modifier) UnmarshalText(text []byte) error {
	parsed, err := ParseModifiers(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseModifiers parses a "+"-separated list of modifier names.
// An empty string parses to ModNone.
func ParseModifiers(s string) (Modifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModNone, nil
	}

	mods := ModNone
	for _, part := range strings.Split(s, "+") {
		mod := ParseModifier(part)
		if mod == ModNone {
			return ModNone, fmt.Errorf("unknown modifier: %q", part)
		}
		mods = mods.With(mod)
	}
	return mods, nil
}

// ParseModifier parses a single modifier name.
// Returns ModNone for unrecognized names.
func ParseModifier(s string) Modifier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ctrl", "control":
		return ModCtrl
	case "alt":
		return ModAlt
	case "shift":
		return ModShift
	case "win", "meta", "super":
		return ModWin
	default:
		return ModNone
	}
}
