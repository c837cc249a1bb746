//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"github.com/dshills/gamebridge/internal/input/key"
	"github.com/dshills/gamebridge/internal/macro"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyeventfKeyUp = 0x0002

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
)

var (
	procSendInput       = user32.NewProc("SendInput")
	procSetCursorPos    = user32.NewProc("SetCursorPos")
	procGetAsyncKeyStat = user32.NewProc("GetAsyncKeyState")
)

// input mirrors the INPUT structure on 64-bit Windows: a type word,
// alignment padding, and a 32-byte union sized by MOUSEINPUT.
type input struct {
	typ   uint32
	_     uint32
	union [32]byte
}

// keybdInput mirrors KEYBDINPUT.
type keybdInput struct {
	VK        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// mouseInput mirrors MOUSEINPUT.
type mouseInput struct {
	DX        int32
	DY        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// InputSynthesizer injects key and mouse events via SendInput. Injected
// events carry LLKHF_INJECTED, so an armed keyboard tap ignores them.
type InputSynthesizer struct{}

// NewInputSynthesizer returns a SendInput-backed synthesizer.
func NewInputSynthesizer() *InputSynthesizer {
	return &InputSynthesizer{}
}

// KeyDown presses the key.
func (s *InputSynthesizer) KeyDown(c key.Code) error {
	return sendKey(c, 0)
}

// KeyUp releases the key.
func (s *InputSynthesizer) KeyUp(c key.Code) error {
	return sendKey(c, keyeventfKeyUp)
}

// Button presses or releases a mouse button at the current cursor
// position.
func (s *InputSynthesizer) Button(b macro.Button, e macro.Edge) error {
	var flags uint32
	switch {
	case b == macro.ButtonLeft && e == macro.EdgeDown:
		flags = mouseeventfLeftDown
	case b == macro.ButtonLeft && e == macro.EdgeUp:
		flags = mouseeventfLeftUp
	case b == macro.ButtonRight && e == macro.EdgeDown:
		flags = mouseeventfRightDown
	case b == macro.ButtonRight && e == macro.EdgeUp:
		flags = mouseeventfRightUp
	case b == macro.ButtonMiddle && e == macro.EdgeDown:
		flags = mouseeventfMiddleDown
	case b == macro.ButtonMiddle && e == macro.EdgeUp:
		flags = mouseeventfMiddleUp
	default:
		return fmt.Errorf("unknown button event %v %v", b, e)
	}

	in := input{typ: inputMouse}
	mi := (*mouseInput)(unsafe.Pointer(&in.union[0]))
	mi.Flags = flags
	return send(&in)
}

// Move positions the cursor at absolute screen coordinates.
func (s *InputSynthesizer) Move(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos: %v", err)
	}
	return nil
}

func sendKey(c key.Code, flags uint32) error {
	in := input{typ: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&in.union[0]))
	ki.VK = uint16(c)
	ki.Flags = flags
	return send(&in)
}

func send(in *input) error {
	ret, _, err := procSendInput.Call(
		1,
		uintptr(unsafe.Pointer(in)),
		unsafe.Sizeof(*in),
	)
	if ret != 1 {
		return fmt.Errorf("SendInput: %v", err)
	}
	return nil
}

// KeyHeld reports whether the key is physically down right now. Feeds
// the playback engine's hold cycle mode.
func KeyHeld(c key.Code) bool {
	ret, _, _ := procGetAsyncKeyStat.Call(uintptr(c))
	return ret&0x8000 != 0
}
