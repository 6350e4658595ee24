package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

// SafeGroup wraps errgroup.Group so a panic inside the step sequence becomes
// an error and the deferred cleanup in Run still executes.
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a new SafeGroup with panic recovery
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group:  g,
		logger: log,
	}, ctx
}

// Go runs fn in a new goroutine. A panic is logged with its stack and
// returned from Wait as *PanicError.
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				sg.logger.Error("Panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(stack)))
				err = &PanicError{Value: r, Stack: stack}
			}
		}()

		return fn()
	})
}

// Wait blocks until every function returned and reports the first error
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}

// PanicError carries a recovered panic value
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
