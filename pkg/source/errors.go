package source

import (
	"errors"
	"fmt"
)

// ErrResolution is matched by every *Error via errors.Is
var ErrResolution = errors.New("template source resolution failed")

// Error reports a clone or checkout failure
type Error struct {
	Locator Locator
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Locator, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match any resolution failure
func (e *Error) Is(target error) bool { return target == ErrResolution }
