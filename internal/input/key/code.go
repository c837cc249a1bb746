package key

import (
	"fmt"
	"strings"
)

// Code identifies a physical key. Values match Windows virtual-key codes so
// the platform layer can pass them through to hooks and input synthesis
// without translation.
type Code uint16

// Digit keys. These, together with letters and function keys, are the keys
// allowed as a shortcut confirmation key.
const (
	Code0 Code = 0x30 + iota
	Code1
	Code2
	Code3
	Code4
	Code5
	Code6
	Code7
	Code8
	Code9
)

// Letter keys.
const (
	CodeA Code = 0x41 + iota
	CodeB
	CodeC
	CodeD
	CodeE
	CodeF
	CodeG
	CodeH
	CodeI
	CodeJ
	CodeK
	CodeL
	CodeM
	CodeN
	CodeO
	CodeP
	CodeQ
	CodeR
	CodeS
	CodeT
	CodeU
	CodeV
	CodeW
	CodeX
	CodeY
	CodeZ
)

// Function keys.
const (
	CodeF1 Code = 0x70 + iota
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
)

// Special keys that can appear in recorded macros.
const (
	CodeNone      Code = 0x00
	CodeBackspace Code = 0x08
	CodeTab       Code = 0x09
	CodeEnter     Code = 0x0D
	CodeShift     Code = 0x10
	CodeCtrl      Code = 0x11
	CodeAlt       Code = 0x12
	CodePause     Code = 0x13
	CodeCapsLock  Code = 0x14
	CodeEscape    Code = 0x1B
	CodeSpace     Code = 0x20
	CodePageUp    Code = 0x21
	CodePageDown  Code = 0x22
	CodeEnd       Code = 0x23
	CodeHome      Code = 0x24
	CodeLeft      Code = 0x25
	CodeUp        Code = 0x26
	CodeRight     Code = 0x27
	CodeDown      Code = 0x28
	CodeInsert    Code = 0x2D
	CodeDelete    Code = 0x2E
	CodeLWin      Code = 0x5B
	CodeRWin      Code = 0x5C
	CodeLShift    Code = 0xA0
	CodeRShift    Code = 0xA1
	CodeLCtrl     Code = 0xA2
	CodeRCtrl     Code = 0xA3
	CodeLAlt      Code = 0xA4
	CodeRAlt      Code = 0xA5
)

// codeNames maps codes to their canonical names. Left/right modifier
// variants share the generic name, matching how macros display them.
var codeNames = map[Code]string{
	CodeBackspace: "Backspace",
	CodeTab:       "Tab",
	CodeEnter:     "Enter",
	CodeShift:     "Shift",
	CodeCtrl:      "Ctrl",
	CodeAlt:       "Alt",
	CodePause:     "Pause",
	CodeCapsLock:  "CapsLock",
	CodeEscape:    "Esc",
	CodeSpace:     "Space",
	CodePageUp:    "PageUp",
	CodePageDown:  "PageDown",
	CodeEnd:       "End",
	CodeHome:      "Home",
	CodeLeft:      "Left",
	CodeUp:        "Up",
	CodeRight:     "Right",
	CodeDown:      "Down",
	CodeInsert:    "Insert",
	CodeDelete:    "Delete",
	CodeLWin:      "Win",
	CodeRWin:      "Win",
	CodeLShift:    "Shift",
	CodeRShift:    "Shift",
	CodeLCtrl:     "Ctrl",
	CodeRCtrl:     "Ctrl",
	CodeLAlt:      "Alt",
	CodeRAlt:      "AltGr",
}

// String returns the canonical name for the code.
// Examples: "A", "7", "F5", "Enter". Unknown codes render as "Key<n>".
func (c Code) String() string {
	switch {
	case c >= Code0 && c <= Code9:
		return string(rune('0' + (c - Code0)))
	case c >= CodeA && c <= CodeZ:
		return string(rune('A' + (c - CodeA)))
	case c >= CodeF1 && c <= CodeF12:
		return fmt.Sprintf("F%d", c-CodeF1+1)
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Key%d", uint16(c))
}

// parseNames resolves names back to codes. Names shared by left and
// right modifier variants resolve to one canonical code, so parsing is
// deterministic.
var parseNames = map[string]Code{
	"BACKSPACE": CodeBackspace,
	"TAB":       CodeTab,
	"ENTER":     CodeEnter,
	"SHIFT":     CodeShift,
	"CTRL":      CodeCtrl,
	"ALT":       CodeAlt,
	"ALTGR":     CodeRAlt,
	"PAUSE":     CodePause,
	"CAPSLOCK":  CodeCapsLock,
	"ESC":       CodeEscape,
	"SPACE":     CodeSpace,
	"PAGEUP":    CodePageUp,
	"PAGEDOWN":  CodePageDown,
	"END":       CodeEnd,
	"HOME":      CodeHome,
	"LEFT":      CodeLeft,
	"UP":        CodeUp,
	"RIGHT":     CodeRight,
	"DOWN":      CodeDown,
	"INSERT":    CodeInsert,
	"DELETE":    CodeDelete,
	"WIN":       CodeLWin,
}

// Parse converts a canonical key name back into a Code.
// Parsing is case-insensitive for letters and named keys.
func Parse(s string) (Code, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case len(upper) == 1 && upper[0] >= '0' && upper[0] <= '9':
		return Code0 + Code(upper[0]-'0'), nil
	case len(upper) == 1 && upper[0] >= 'A' && upper[0] <= 'Z':
		return CodeA + Code(upper[0]-'A'), nil
	}
	if strings.HasPrefix(upper, "F") && len(upper) >= 2 && len(upper) <= 3 {
		var n int
		if _, err := fmt.Sscanf(upper, "F%d", &n); err == nil && n >= 1 && n <= 12 {
			return CodeF1 + Code(n-1), nil
		}
	}
	if code, ok := parseNames[upper]; ok {
		return code, nil
	}
	if strings.HasPrefix(upper, "KEY") {
		var n int
		if _, err := fmt.Sscanf(upper, "KEY%d", &n); err == nil && n > 0 && n <= 0xFFFF {
			return Code(n), nil
		}
	}
	return CodeNone, fmt.Errorf("unknown key name: %q", s)
}

// IsConfirmationKey returns true if the code may serve as a shortcut
// confirmation key: A-Z, 0-9, or F1-F12.
func (c Code) IsConfirmationKey() bool {
	switch {
	case c >= Code0 && c <= Code9:
		return true
	case c >= CodeA && c <= CodeZ:
		return true
	case c >= CodeF1 && c <= CodeF12:
		return true
	}
	return false
}

// AsModifier returns the modifier bit this code contributes when held,
// or ModNone if the code is not a modifier key.
func (c Code) AsModifier() Modifier {
	switch c {
	case CodeShift, CodeLShift, CodeRShift:
		return ModShift
	case CodeCtrl, CodeLCtrl, CodeRCtrl:
		return ModCtrl
	case CodeAlt, CodeLAlt, CodeRAlt:
		return ModAlt
	case CodeLWin, CodeRWin:
		return ModWin
	}
	return ModNone
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
