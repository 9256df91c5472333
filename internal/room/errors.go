package room

import "errors"

// Engine error taxonomy. Every one of these is absorbed fail-soft at the
// session boundary: a malformed event must never corrupt shared state or
// tear down another user's connection.
var (
	// ErrUnknownUser marks a move or talk referencing a name with no
	// presence record.
	ErrUnknownUser = errors.New("room: unknown user")
	// ErrUnknownConnection marks an event from a connection the engine has
	// never seen, or one that has not identified itself yet.
	ErrUnknownConnection = errors.New("room: unknown connection")
	// ErrInvalidDirection marks a move event with an unrecognized direction
	// token.
	ErrInvalidDirection = errors.New("room: invalid direction")
)
