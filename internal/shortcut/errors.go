package shortcut

import "errors"

// Sentinel errors for the shortcut registry.
var (
	// ErrBareKey is returned when a chord has no modifier keys.
	// A bare confirmation key would hijack normal typing.
	ErrBareKey = errors.New("shortcut requires at least one modifier key")

	// ErrInvalidKey is returned when the confirmation key is not one of
	// A-Z, 0-9, or F1-F12.
	ErrInvalidKey = errors.New("invalid shortcut confirmation key")

	// ErrChordInUse is returned when the chord is already bound within
	// this application. The earlier binding is retained.
	ErrChordInUse = errors.New("shortcut chord already bound")

	// ErrSystemRegistration is returned when the OS rejects the chord,
	// typically because another process registered it first.
	ErrSystemRegistration = errors.New("system shortcut registration failed")

	// ErrChordNotBound is returned when unregistering a chord that is
	// not registered.
	ErrChordNotBound = errors.New("shortcut chord not bound")
)
