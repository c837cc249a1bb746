package macro

import "errors"

// Sentinel errors for the macro store.
var (
	// ErrMacroNotFound is returned when no macro has the given id.
	ErrMacroNotFound = errors.New("macro not found")

	// ErrMacroExists is returned when adding a macro whose id is taken.
	ErrMacroExists = errors.New("macro already exists")

	// ErrIndexOutOfRange is returned when an edit operation's index does
	// not address a valid position in the event sequence.
	ErrIndexOutOfRange = errors.New("event index out of range")

	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("invalid macro event")

	// ErrInvalidDefinition is returned when a macro definition fails
	// validation.
	ErrInvalidDefinition = errors.New("invalid macro definition")

	// ErrRecordingConflict is returned when an operation would mutate a
	// macro that an armed capture session owns, or would start a second
	// recording. The in-progress recording is left untouched.
	ErrRecordingConflict = errors.New("recording in progress")
)
