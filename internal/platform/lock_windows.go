//go:build windows

package platform

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Lock is a named exclusive lock used for leader election: the holder
// owns the tray icon and keyboard hook, losers act as bus clients.
type Lock struct {
	handle windows.Handle
}

// AcquireLock takes the named lock. Returns ErrLockHeld when another
// process instance already owns it.
func AcquireLock(name string) (*Lock, error) {
	name16, err := windows.UTF16PtrFromString(`Global\` + name)
	if err != nil {
		return nil, fmt.Errorf("lock name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, true, name16)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				windows.CloseHandle(handle)
			}
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("CreateMutex: %w", err)
	}
	return &Lock{handle: handle}, nil
}

// Release frees the lock.
func (l *Lock) Release() error {
	if l.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(l.handle)
	l.handle = 0
	return err
}
