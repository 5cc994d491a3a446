package history

import "errors"

var (
	// ErrNotConnected is returned when a socket write is attempted without an attached client.
	ErrNotConnected = errors.New("history: no client connected")

	// ErrUnknownMessage is returned for client messages with an unsupported type.
	ErrUnknownMessage = errors.New("history: unknown message type")
)
