//go:build !windows

package platform

import (
	"github.com/dshills/gamebridge/internal/capture"
	"github.com/dshills/gamebridge/internal/input/key"
	"github.com/dshills/gamebridge/internal/macro"
	"github.com/dshills/gamebridge/internal/shortcut"
)

// KeyboardTap is unavailable off Windows; Install fails and recording
// stays disabled.
type KeyboardTap struct{}

func NewKeyboardTap() *KeyboardTap { return &KeyboardTap{} }

func (*KeyboardTap) Install(func(capture.Transition)) error { return ErrUnsupported }

func (*KeyboardTap) Remove() error { return nil }

// InputSynthesizer is unavailable off Windows.
type InputSynthesizer struct{}

func NewInputSynthesizer() *InputSynthesizer { return &InputSynthesizer{} }

func (*InputSynthesizer) KeyDown(key.Code) error                { return ErrUnsupported }
func (*InputSynthesizer) KeyUp(key.Code) error                  { return ErrUnsupported }
func (*InputSynthesizer) Button(macro.Button, macro.Edge) error { return ErrUnsupported }
func (*InputSynthesizer) Move(int, int) error                   { return ErrUnsupported }

// HotkeyCenter is unavailable off Windows; registrations fail so the
// registry surfaces them as system rejections.
type HotkeyCenter struct{}

func NewHotkeyCenter(func(shortcut.Chord)) *HotkeyCenter { return &HotkeyCenter{} }

func (*HotkeyCenter) Register(shortcut.Chord) error   { return ErrUnsupported }
func (*HotkeyCenter) Unregister(shortcut.Chord) error { return nil }
func (*HotkeyCenter) Close() error                    { return nil }

// KeyHeld always reports false off Windows.
func KeyHeld(key.Code) bool { return false }
