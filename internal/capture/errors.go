package capture

import "errors"

// Sentinel errors for the capture session.
var (
	// ErrHookInstall is returned when the system-wide keyboard tap could
	// not be installed. Recording is disabled for the session; the rest
	// of the process keeps running.
	ErrHookInstall = errors.New("keyboard hook installation failed")

	// ErrNoSession is returned when stopping while no recording is active.
	ErrNoSession = errors.New("no recording session active")
)
