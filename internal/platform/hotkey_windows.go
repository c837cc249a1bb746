//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/dshills/gamebridge/internal/input/key"
	"github.com/dshills/gamebridge/internal/shortcut"
)

const (
	wmHotkey = 0x0312

	modAlt     = 0x0001
	modControl = 0x0002
	modShift   = 0x0004
	modWin     = 0x0008
	// modNoRepeat suppresses auto-repeat while the chord stays held.
	modNoRepeat = 0x4000
)

var (
	procRegisterHotKey   = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32.NewProc("UnregisterHotKey")
)

// hotkeyCmd is a register/unregister request executed on the hotkey
// thread, which owns all RegisterHotKey calls.
type hotkeyCmd struct {
	register bool
	id       int32
	mods     uint32
	vk       uint32
	reply    chan error
}

// HotkeyCenter registers global hotkeys with the OS and reports chord
// presses. It implements the shortcut registry's OS hook. All OS calls
// happen on one dedicated locked thread because WM_HOTKEY is delivered
// to the registering thread.
type HotkeyCenter struct {
	onChord func(shortcut.Chord)
	cmds    chan hotkeyCmd

	mu     sync.Mutex
	ids    map[shortcut.Chord]int32
	nextID int32
	stop   chan struct{}
	done   chan struct{}
}

// NewHotkeyCenter starts the hotkey thread. Chord presses are delivered
// to onChord from that thread; keep the handler short.
func NewHotkeyCenter(onChord func(shortcut.Chord)) *HotkeyCenter {
	if onChord == nil {
		onChord = func(shortcut.Chord) {}
	}
	h := &HotkeyCenter{
		onChord: onChord,
		cmds:    make(chan hotkeyCmd),
		ids:     make(map[shortcut.Chord]int32),
		nextID:  1,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.thread()
	return h
}

// Register binds the chord system-wide. A collision with another
// process's registration surfaces as an error.
func (h *HotkeyCenter) Register(c shortcut.Chord) error {
	h.mu.Lock()
	if _, ok := h.ids[c]; ok {
		h.mu.Unlock()
		return nil
	}
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	reply := make(chan error, 1)
	h.cmds <- hotkeyCmd{register: true, id: id, mods: toWinMods(c.Modifiers), vk: uint32(c.Key), reply: reply}
	if err := <-reply; err != nil {
		return err
	}

	h.mu.Lock()
	h.ids[c] = id
	h.mu.Unlock()
	return nil
}

// Unregister releases the chord.
func (h *HotkeyCenter) Unregister(c shortcut.Chord) error {
	h.mu.Lock()
	id, ok := h.ids[c]
	if ok {
		delete(h.ids, c)
	}
	h.mu.Unlock()
	if !ok {
		return nil
	}

	reply := make(chan error, 1)
	h.cmds <- hotkeyCmd{id: id, reply: reply}
	return <-reply
}

// Close unregisters everything and stops the hotkey thread.
func (h *HotkeyCenter) Close() error {
	h.mu.Lock()
	chords := make([]shortcut.Chord, 0, len(h.ids))
	for c := range h.ids {
		chords = append(chords, c)
	}
	h.mu.Unlock()

	for _, c := range chords {
		if err := h.Unregister(c); err != nil {
			return err
		}
	}
	close(h.stop)
	<-h.done
	return nil
}

// thread owns RegisterHotKey calls and the WM_HOTKEY pump.
func (h *HotkeyCenter) thread() {
	defer close(h.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var m msg
	for {
		select {
		case <-h.stop:
			return
		case cmd := <-h.cmds:
			cmd.reply <- h.execute(cmd)
			continue
		default:
		}

		got, _, _ := procPeekMessageW.Call(
			uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if got == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if m.Message == wmHotkey {
			h.onChord(chordFromLParam(m.LParam))
		}
	}
}

func (h *HotkeyCenter) execute(cmd hotkeyCmd) error {
	if cmd.register {
		ret, _, err := procRegisterHotKey.Call(0, uintptr(cmd.id),
			uintptr(cmd.mods|modNoRepeat), uintptr(cmd.vk))
		if ret == 0 {
			return fmt.Errorf("RegisterHotKey: %v", err)
		}
		return nil
	}
	ret, _, err := procUnregisterHotKey.Call(0, uintptr(cmd.id))
	if ret == 0 {
		return fmt.Errorf("UnregisterHotKey: %v", err)
	}
	return nil
}

// chordFromLParam unpacks WM_HOTKEY's lParam: low word modifiers, high
// word virtual-key code.
func chordFromLParam(lp uintptr) shortcut.Chord {
	winMods := uint32(lp) & 0xFFFF
	vk := (uint32(lp) >> 16) & 0xFFFF

	var mods key.Modifier
	if winMods&modAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if winMods&modControl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if winMods&modShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if winMods&modWin != 0 {
		mods = mods.With(key.ModWin)
	}
	return shortcut.Chord{Modifiers: mods, Key: key.Code(vk)}
}

func toWinMods(m key.Modifier) uint32 {
	var w uint32
	if m.Has(key.ModAlt) {
		w |= modAlt
	}
	if m.Has(key.ModCtrl) {
		w |= modControl
	}
	if m.Has(key.ModShift) {
		w |= modShift
	}
	if m.Has(key.ModWin) {
		w |= modWin
	}
	return w
}
