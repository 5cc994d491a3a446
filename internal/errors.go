package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAction is matched by MissingActionError.
	ErrMissingAction = errors.New("compass: action does not exist")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("compass: application already running")

	// ErrNilController is returned when a route factory yields nil.
	ErrNilController = errors.New("compass: controller factory returned nil")
)

// MissingActionError reports a route whose resolved action is not defined
// by its controller. It is returned before any lifecycle event fires.
type MissingActionError struct {
	Controller string
	Action     string
	Route      string
}

func (e *MissingActionError) Error() string {
	return fmt.Sprintf("compass: action %q does not exist on controller %q (route %s)", e.Action, e.Controller, e.Route)
}

// Is reports whether target is ErrMissingAction.
func (e *MissingActionError) Is(target error) bool {
	return target == ErrMissingAction
}

// PanicError wraps a value recovered from a panic inside the dispatch
// pipeline.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
