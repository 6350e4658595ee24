package mutate

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every *NotFoundError via errors.Is
var ErrNotFound = errors.New("mutation target not found")

// NotFoundError reports an anchor or pattern missing from a file
type NotFoundError struct {
	Path string
	// Kind is "anchor" for literal inserts and "pattern" for substitutions.
	Kind   string
	Needle string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in %s", e.Kind, e.Needle, e.Path)
}

// Is lets callers match any missing anchor or pattern
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
