package health

import "errors"

var (
	// ErrCheckFailed is returned by Run when one or more checks fail.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrNotReady is the default failure reported by Closed.
	ErrNotReady = errors.New("health: not ready")
)
