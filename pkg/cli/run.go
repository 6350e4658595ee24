package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jumpstart/jumpstart/internal/engine"
	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/source"
)

// ErrNoTemplate is returned when neither an argument nor the template
// setting names a template.
var ErrNoTemplate = errors.New("no template locator: pass one as the first argument or set template in jumpstart.yaml")

func (c *CLI) runProvision(cmd *cobra.Command, args []string) error {
	raw := c.settings.Template
	if len(args) > 0 {
		raw = args[0]
	}
	if raw == "" {
		return ErrNoTemplate
	}
	projectDir := "."
	if len(args) > 1 {
		projectDir = args[1]
	}

	loc := source.ParseLocator(raw, c.settings.Repository, c.settings.Entry)
	c.logger.Debug("Template locator",
		logger.WithField("kind", loc.Kind.String()),
		logger.WithField("locator", loc.String()))

	factory := engine.NewDependencyFactory(projectDir, c.logger, c.settings)
	deps := factory.CreateWithOverrides(c.overrides)

	c.printInfo("Provisioning " + projectDir)
	err := engine.New(c.logger, deps).Run(cmd.Context(), engine.Options{
		Locator:    loc,
		TargetRoot: projectDir,
		RecipePath: c.settings.Recipe,
		Out:        c.output,
	})
	if err != nil {
		return err
	}

	c.printSuccess("Done. Start the server with bin/rails server")
	return nil
}
