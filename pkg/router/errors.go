package router

import "errors"

var (
	// ErrNilHandler is returned when a binding is registered without a handler.
	ErrNilHandler = errors.New("router: nil handler")

	// ErrNilMatcher is returned by RouteMatcher for a nil matcher.
	ErrNilMatcher = errors.New("router: nil matcher")

	// ErrListenerPanic wraps a panic recovered from an OnExpired listener.
	ErrListenerPanic = errors.New("router: expired listener panicked")
)
