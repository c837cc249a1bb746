package playback

import "errors"

// Sentinel errors for the playback engine.
var (
	// ErrAlreadyPlaying is returned when a macro is already running.
	ErrAlreadyPlaying = errors.New("a macro is already playing")

	// ErrNoEvents is returned when the macro has nothing to play.
	ErrNoEvents = errors.New("macro has no events")
)
