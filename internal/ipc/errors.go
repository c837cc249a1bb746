package ipc

import "errors"

// Sentinel errors for the message bus.
var (
	// ErrNotListening is returned when no listener is bound to the
	// endpoint. Transient: clients retry with backoff.
	ErrNotListening = errors.New("no listener on endpoint")

	// ErrAlreadyRunning is returned when a second listener attempts to
	// bind an endpoint that a live listener already owns. Callers use it
	// to focus the existing instance instead of starting a duplicate.
	ErrAlreadyRunning = errors.New("endpoint already has a listener")

	// ErrDisconnected is returned when the connection is lost mid-session.
	ErrDisconnected = errors.New("connection lost")

	// ErrFrameTooLarge is returned when a frame exceeds the size limit.
	ErrFrameTooLarge = errors.New("frame exceeds size limit")

	// ErrUnknownMessage is returned when a frame carries an unrecognized
	// discriminant tag. The connection remains usable.
	ErrUnknownMessage = errors.New("unknown message kind")
)
