package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	jctx "github.com/jumpstart/jumpstart/pkg/context"
	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/notifier"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/source"
	"github.com/jumpstart/jumpstart/pkg/steps"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// ErrInterrupted is matched by *InterruptedError
var ErrInterrupted = errors.New("interrupted")

// InterruptedError reports a run stopped by an operator signal
type InterruptedError struct {
	Signal os.Signal
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted by %v", e.Signal)
}

// Is matches ErrInterrupted
func (e *InterruptedError) Is(target error) bool { return target == ErrInterrupted }

// ExitCode follows the shell convention of 128 plus the signal number
func (e *InterruptedError) ExitCode() int {
	if sig, ok := e.Signal.(syscall.Signal); ok {
		return 128 + int(sig)
	}
	return 130
}

// Dependencies are the collaborators of a run
type Dependencies struct {
	Resolver  Resolver
	Sequencer Sequencer
	Recipes   RecipeLoader
	Runner    process.Runner
	Manager   *process.Manager
	Notifier  notifier.Notifier
}

// Options describe one run
type Options struct {
	Locator    source.Locator
	TargetRoot string
	// RecipePath overrides recipe discovery in the template root.
	RecipePath string
	Out        io.Writer
}

// Jumpstart orchestrates a provisioning run
type Jumpstart struct {
	logger logger.Logger
	deps   Dependencies
}

// New creates an engine. Resolver, Sequencer, Recipes, Runner and Manager
// are required.
func New(log logger.Logger, deps Dependencies) *Jumpstart {
	if deps.Resolver == nil {
		panic("Resolver dependency is required")
	}
	if deps.Sequencer == nil {
		panic("Sequencer dependency is required")
	}
	if deps.Recipes == nil {
		panic("Recipes dependency is required")
	}
	if deps.Runner == nil {
		panic("Runner dependency is required")
	}
	if deps.Manager == nil {
		panic("Manager dependency is required")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Jumpstart{logger: log, deps: deps}
}

// Run resolves the template and runs every step. The template release runs
// exactly once on every exit path, after any running subprocess has exited.
func (j *Jumpstart) Run(ctx context.Context, opts Options) (err error) {
	ctx = jctx.EnrichContext(ctx)
	log := logger.WithContext(ctx, j.logger)

	targetRoot, err := filepath.Abs(opts.TargetRoot)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	if !utils.DirectoryExists(targetRoot) {
		return &utils.IOError{Op: "open", Path: targetRoot, Err: errors.New("project directory does not exist")}
	}

	manager := j.deps.Manager
	ctx = manager.Start(ctx)
	defer manager.Stop()
	defer func() {
		if shErr := manager.Shutdown(); shErr != nil {
			err = errors.Join(err, shErr)
		}
	}()
	defer func() { j.notify(targetRoot, err) }()
	defer func() {
		// A signal during Resolve surfaces as a cancelled clone.
		if sig := manager.Signal(); err != nil && sig != nil && !errors.Is(err, ErrInterrupted) {
			err = &InterruptedError{Signal: sig}
		}
	}()

	log.Info("Provisioning project",
		logger.WithField("project", targetRoot),
		logger.WithField("template", opts.Locator.String()))

	resolved, release, err := j.deps.Resolver.Resolve(ctx, opts.Locator)
	if release != nil {
		defer release()
	}
	if err != nil {
		return err
	}

	recipe, recipePath, err := j.deps.Recipes.Resolve(opts.RecipePath, resolved.Root)
	if err != nil {
		return err
	}
	if recipePath != "" {
		log.Info("Using recipe", logger.WithField("file", recipePath))
	}

	sc := &steps.Context{
		TargetRoot:   targetRoot,
		TemplateRoot: resolved.Root,
		Runner:       j.deps.Runner,
		Logger:       j.logger,
		Recipe:       recipe,
		Cleanup:      manager,
		Out:          opts.Out,
	}

	if err := j.runSequence(ctx, log, sc); err != nil {
		return err
	}

	log.Success("Project ready", logger.WithField("duration", jctx.GetDuration(ctx).Round(time.Millisecond)))
	return nil
}

// runSequence runs the steps in a SafeGroup and returns early when the
// manager reports an operator interrupt.
func (j *Jumpstart) runSequence(ctx context.Context, log logger.Logger, sc *steps.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := NewSafeGroup(runCtx, log)
	group.Go(func() error {
		return j.deps.Sequencer.Run(groupCtx, sc)
	})

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case sig := <-j.deps.Manager.Interrupted():
		log.Warn("Stopping after interrupt", logger.WithField("signal", sig))
		cancel()
		<-done
		return &InterruptedError{Signal: sig}
	}
}

func (j *Jumpstart) notify(project string, err error) {
	if j.deps.Notifier == nil {
		return
	}
	if err != nil {
		j.deps.Notifier.NotifyRunFailure(project, err)
		return
	}
	j.deps.Notifier.NotifyRunSuccess(project)
}
