package engine

import (
	"github.com/jumpstart/jumpstart/pkg/config"
	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/notifier"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/source"
	"github.com/jumpstart/jumpstart/pkg/steps"
	"github.com/jumpstart/jumpstart/pkg/types"
)

// DependencyFactory builds the default collaborators from settings
type DependencyFactory struct {
	targetRoot string
	logger     logger.Logger
	settings   *types.Settings
}

// NewDependencyFactory creates a new dependency factory
func NewDependencyFactory(targetRoot string, log logger.Logger, settings *types.Settings) *DependencyFactory {
	if settings == nil {
		settings = &types.Settings{}
	}
	return &DependencyFactory{
		targetRoot: targetRoot,
		logger:     log,
		settings:   settings,
	}
}

// CreateDefaults creates every dependency of a run. The resolver registers
// template releases with the same manager the engine drives.
func (f *DependencyFactory) CreateDefaults() Dependencies {
	runner := f.createRunner()
	manager := f.createManager()

	deps := Dependencies{
		Runner:    runner,
		Manager:   manager,
		Resolver:  f.createResolver(runner, manager),
		Sequencer: steps.NewSequencer(f.logger),
		Recipes:   config.NewManager(),
	}

	if f.settings.Notifications.Enabled {
		deps.Notifier = notifier.New(notifier.Config{Enabled: true}, f.logger)
	}
	return deps
}

// CreateWithOverrides creates dependencies with specific overrides. A
// Manager override is also wired into the default resolver.
func (f *DependencyFactory) CreateWithOverrides(overrides Dependencies) Dependencies {
	deps := f.CreateDefaults()

	if overrides.Runner != nil {
		deps.Runner = overrides.Runner
	}
	if overrides.Manager != nil {
		deps.Manager = overrides.Manager
	}
	if overrides.Resolver != nil {
		deps.Resolver = overrides.Resolver
	} else if overrides.Runner != nil || overrides.Manager != nil {
		deps.Resolver = f.createResolver(deps.Runner, deps.Manager)
	}
	if overrides.Sequencer != nil {
		deps.Sequencer = overrides.Sequencer
	}
	if overrides.Recipes != nil {
		deps.Recipes = overrides.Recipes
	}
	if overrides.Notifier != nil {
		deps.Notifier = overrides.Notifier
	}

	return deps
}

func (f *DependencyFactory) createRunner() process.Runner {
	return process.NewExecRunner(f.targetRoot, f.logger)
}

func (f *DependencyFactory) createManager() *process.Manager {
	return process.NewManager(f.logger)
}

func (f *DependencyFactory) createResolver(runner process.Runner, manager *process.Manager) Resolver {
	return source.NewResolver(f.createFetcher(runner), manager, f.logger)
}

func (f *DependencyFactory) createFetcher(runner process.Runner) source.Fetcher {
	if f.settings.Fetcher == types.FetcherGoGit {
		return source.NewGoGitFetcher(f.logger)
	}
	return source.NewGitFetcher(runner, f.settings.GitBinary)
}
