package process

import (
	"errors"
	"fmt"
)

// ErrSubprocessFailed is matched by every *ExitError via errors.Is
var ErrSubprocessFailed = errors.New("subprocess failed")

// ExitError reports an external program that exited non-zero or could not
// be started (Code -1).
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Is lets callers match any subprocess failure
func (e *ExitError) Is(target error) bool { return target == ErrSubprocessFailed }
