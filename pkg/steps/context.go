// Package steps holds the fixed provisioning sequence and the execution
// context every step receives.
package steps

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/types"
	"github.com/jumpstart/jumpstart/pkg/version"
)

// Registrar accepts cleanup handlers for the current run
type Registrar interface {
	RegisterShutdownHandler(handler func() error)
}

// Context carries everything a step may touch. Nothing is read from the
// process working directory.
type Context struct {
	TargetRoot   string
	TemplateRoot string
	Runner       process.Runner
	Logger       logger.Logger
	Recipe       *types.Recipe
	Cleanup      Registrar
	Out          io.Writer

	// Gems is filled by the declare step and consumed at the phase boundary.
	Gems []types.Gem

	// DetectVersion overrides Rails version detection.
	DetectVersion func() (string, error)

	stepLogger logger.Logger
}

// Path joins rel onto the target root
func (c *Context) Path(rel ...string) string {
	return filepath.Join(append([]string{c.TargetRoot}, rel...)...)
}

// TemplatePath joins rel onto the effective template root
func (c *Context) TemplatePath(rel ...string) string {
	return filepath.Join(append([]string{c.TemplateRoot}, rel...)...)
}

// Log returns the logger scoped to the running step
func (c *Context) Log() logger.Logger {
	if c.stepLogger != nil {
		return c.stepLogger
	}
	if c.Logger != nil {
		return c.Logger
	}
	return logger.NewNopLogger()
}

// Run invokes name in the target root
func (c *Context) Run(ctx context.Context, name string, args ...string) error {
	return c.Runner.Run(ctx, process.Invocation{Name: name, Args: args, Dir: c.TargetRoot})
}

// RunEnv invokes name in the target root with extra environment entries
func (c *Context) RunEnv(ctx context.Context, env []string, name string, args ...string) error {
	return c.Runner.Run(ctx, process.Invocation{Name: name, Args: args, Dir: c.TargetRoot, Env: env})
}

// Generate runs a Rails generator
func (c *Context) Generate(ctx context.Context, generator string, args ...string) error {
	return c.Run(ctx, "bin/rails", append([]string{"generate", generator}, args...)...)
}

// Announce prints an operator-facing message
func (c *Context) Announce(message string) {
	if c.Out == nil {
		return
	}
	fmt.Fprintf(c.Out, "%s %s\n", color.CyanString("[jumpstart]"), message)
}

// railsVersion returns the detector used by version predicates
func (c *Context) railsVersion(ctx context.Context) func() (string, error) {
	if c.DetectVersion != nil {
		return c.DetectVersion
	}
	return version.RailsDetector(ctx, c.TargetRoot, c.Runner)
}

func (c *Context) recipe() *types.Recipe {
	if c.Recipe == nil {
		c.Recipe = types.DefaultRecipe()
	}
	return c.Recipe
}
