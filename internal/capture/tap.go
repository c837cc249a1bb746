package capture

import (
	"time"

	"github.com/dshills/gamebridge/internal/input/key"
)

// Transition is one raw keyboard edge observed by the system-wide tap.
type Transition struct {
	// Code is the key that changed state.
	Code key.Code
	// Down is true for a press, false for a release.
	Down bool
	// At is when the transition was observed.
	At time.Time
}

// Tap installs and removes the process-wide keyboard event tap. The
// Windows implementation lives in the platform package; tests use fakes.
//
// The callback runs on the tap's own thread and must return promptly.
// Remove must not return until no further callbacks will be delivered.
type Tap interface {
	// Install arms the tap. While installed, keyboard input is consumed
	// exclusively and does not reach other applications.
	Install(func(Transition)) error

	// Remove disarms the tap and restores normal keyboard delivery.
	Remove() error
}
