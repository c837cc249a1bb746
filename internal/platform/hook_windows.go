//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/dshills/gamebridge/internal/capture"
	"github.com/dshills/gamebridge/internal/input/key"
	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	// llkhfInjected marks events synthesized via SendInput. Skipping
	// them keeps playback output out of an armed recording.
	llkhfInjected = 0x10

	pmRemove = 0x0001
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	VKCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// msg mirrors the window MSG structure for the pump.
type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

// KeyboardTap installs a WH_KEYBOARD_LL hook. While installed, key
// events are delivered to the callback and swallowed system-wide: they
// do not reach any other application. The hook thread is dedicated and
// OS-locked because the hook procedure runs on the thread that set it.
type KeyboardTap struct {
	// callback is read from the hook thread without locks.
	callback atomic.Pointer[func(capture.Transition)]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewKeyboardTap returns an idle tap.
func NewKeyboardTap() *KeyboardTap {
	return &KeyboardTap{}
}

// Install arms the hook. The callback runs on the hook thread and must
// return promptly.
func (t *KeyboardTap) Install(cb func(capture.Transition)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return fmt.Errorf("keyboard hook already installed")
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	installed := make(chan error, 1)

	t.callback.Store(&cb)
	go t.hookThread(stop, done, installed)

	if err := <-installed; err != nil {
		t.callback.Store(nil)
		return err
	}
	t.stop = stop
	t.done = done
	return nil
}

// Remove disarms the hook and waits until the hook thread has exited,
// after which no further callbacks occur.
func (t *KeyboardTap) Remove() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop == nil {
		return nil
	}
	close(t.stop)
	<-t.done
	t.stop = nil
	t.done = nil
	t.callback.Store(nil)
	return nil
}

// hookThread sets the hook, pumps messages until stopped, and unhooks.
func (t *KeyboardTap) hookThread(stop <-chan struct{}, done chan<- struct{}, installed chan<- error) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	proc := windows.NewCallback(func(nCode int32, wParam uintptr, lParam uintptr) uintptr {
		if nCode < 0 {
			ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
			return ret
		}

		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if kb.Flags&llkhfInjected != 0 {
			ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
			return ret
		}

		down := wParam == wmKeyDown || wParam == wmSysKeyDown
		up := wParam == wmKeyUp || wParam == wmSysKeyUp
		if down || up {
			if cb := t.callback.Load(); cb != nil {
				(*cb)(capture.Transition{
					Code: key.Code(kb.VKCode),
					Down: down,
					At:   time.Now(),
				})
			}
			// Swallow: blocked input never reaches other applications.
			return 1
		}

		ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return ret
	})

	hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, proc, 0, 0)
	if hook == 0 {
		installed <- fmt.Errorf("SetWindowsHookEx: %v", callErr)
		return
	}
	installed <- nil

	// A low-level hook needs a message loop on its thread. Pump without
	// blocking so the stop signal is observed promptly.
	var m msg
	for {
		select {
		case <-stop:
			procUnhookWindowsHookEx.Call(hook)
			return
		default:
		}

		got, _, _ := procPeekMessageW.Call(
			uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if got == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
