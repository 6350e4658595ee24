package engine

import (
	"context"

	"github.com/jumpstart/jumpstart/pkg/source"
	"github.com/jumpstart/jumpstart/pkg/steps"
	"github.com/jumpstart/jumpstart/pkg/types"
)

// Resolver yields the effective template root and its release function.
// Implemented by *source.Resolver and by test doubles.
type Resolver interface {
	Resolve(ctx context.Context, loc source.Locator) (source.Resolved, func() error, error)
}

// Sequencer runs the provisioning steps
type Sequencer interface {
	Run(ctx context.Context, sc *steps.Context) error
	Steps() []steps.Step
}

// RecipeLoader picks the recipe for a run
type RecipeLoader interface {
	Resolve(explicit, templateRoot string) (*types.Recipe, string, error)
}
