package platform

import "errors"

// Sentinel errors for the platform layer.
var (
	// ErrUnsupported is returned on platforms without the OS facility.
	ErrUnsupported = errors.New("not supported on this platform")

	// ErrLockHeld is returned when another process holds the named lock.
	ErrLockHeld = errors.New("lock held by another process")
)
