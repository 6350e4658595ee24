package steps

import (
	"context"
	"fmt"
	"time"

	jctx "github.com/jumpstart/jumpstart/pkg/context"
	"github.com/jumpstart/jumpstart/pkg/logger"
)

// Step is one fixed-position unit of provisioning work
type Step interface {
	Name() string
	Description() string
	Run(ctx context.Context, sc *Context) error
}

// phaseBoundary marks the step after which the post-install phase begins
type phaseBoundary interface {
	PhaseBoundary() bool
}

// StepError names the step that halted the run
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Default returns the provisioning steps in their fixed order
func Default() []Step {
	return []Step{
		DeclareGems{},
		BundleInstall{},
		ApplicationName{},
		Users{},
		Bootstrap{},
		Haml{},
		CopyTemplates{},
		Database{},
		Git{},
	}
}

// Sequencer runs steps in order and stops at the first failure. Nothing is
// retried or rolled back.
type Sequencer struct {
	steps  []Step
	logger logger.Logger
}

// NewSequencer creates a sequencer over the default steps
func NewSequencer(log logger.Logger) *Sequencer {
	return NewSequencerWithSteps(log, Default())
}

// NewSequencerWithSteps creates a sequencer over steps
func NewSequencerWithSteps(log logger.Logger, steps []Step) *Sequencer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Sequencer{steps: steps, logger: log}
}

// Steps returns the sequence
func (s *Sequencer) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Run executes every step against sc
func (s *Sequencer) Run(ctx context.Context, sc *Context) error {
	if sc.Logger == nil {
		sc.Logger = s.logger
	}
	defer func() { sc.stepLogger = nil }()

	for _, step := range s.steps {
		name := step.Name()
		if err := ctx.Err(); err != nil {
			return &StepError{Step: name, Err: err}
		}

		stepCtx := jctx.WithStartTime(jctx.WithStep(ctx, name), time.Now())
		sc.stepLogger = logger.WithContext(stepCtx, sc.Logger.WithStep(name))
		sc.stepLogger.Info(step.Description())

		if err := step.Run(stepCtx, sc); err != nil {
			sc.stepLogger.Error("Step failed", logger.WithField("error", err))
			return &StepError{Step: name, Err: err}
		}

		if b, ok := step.(phaseBoundary); ok && b.PhaseBoundary() {
			sc.stepLogger.Debug("Dependencies installed, entering post-install phase")
		}
		sc.stepLogger.Debug("Step finished")
	}
	return nil
}
