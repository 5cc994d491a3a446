package routepattern

import (
	"errors"
	"fmt"
)

// ErrMalformedTemplate is matched by every template compilation failure.
var ErrMalformedTemplate = errors.New("routepattern: malformed template")

// CompileError describes why a template could not be compiled.
type CompileError struct {
	// Template is the template as passed to Compile.
	Template string

	// Reason is a short human-readable description of the problem.
	Reason string

	// Offset is the byte offset of the offending token, or -1 when the
	// problem is not tied to a position (e.g. an unclosed bracket at EOF).
	Offset int
}

func (e *CompileError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("routepattern: %s in %q", e.Reason, e.Template)
	}
	return fmt.Sprintf("routepattern: %s at offset %d in %q", e.Reason, e.Offset, e.Template)
}

// Is reports whether target is ErrMalformedTemplate.
func (e *CompileError) Is(target error) bool {
	return target == ErrMalformedTemplate
}
