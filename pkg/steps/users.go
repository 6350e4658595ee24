package steps

import (
	"context"
	"fmt"

	"github.com/jumpstart/jumpstart/internal/fswatch"
	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/mutate"
	"github.com/jumpstart/jumpstart/pkg/utils"
	"github.com/jumpstart/jumpstart/pkg/version"
)

const (
	adminPattern     = `:admin\b`
	adminReplacement = ":admin, default: false"

	secretKeyPattern     = `  # config.secret_key = .+`
	secretKeyReplacement = "  config.secret_key = Rails.application.credentials.secret_key_base"
)

// Users installs Devise and generates the user model
type Users struct{}

func (Users) Name() string        { return "users" }
func (Users) Description() string { return "Install authentication" }

func (Users) Run(ctx context.Context, sc *Context) error {
	recipe := sc.recipe()

	if err := sc.Generate(ctx, "devise:install"); err != nil {
		return err
	}

	results, err := mutate.Apply(
		mutate.InsertAfter{
			Path:    sc.Path("config", "environments", "development.rb"),
			Anchor:  "Rails.application.configure do",
			Payload: "  config.action_mailer.default_url_options = { host: 'localhost', port: 3000 }",
		},
		mutate.InsertAfter{
			Path:    sc.Path("config", "routes.rb"),
			Anchor:  "Rails.application.routes.draw do",
			Payload: fmt.Sprintf("  root to: '%s'", recipe.RootRoute),
		},
	)
	if err != nil {
		return err
	}
	logResults(sc, results)

	if err := sc.Generate(ctx, "devise:views:bootstrapped"); err != nil {
		return err
	}

	if err := generateUserModel(ctx, sc); err != nil {
		return err
	}

	migration, err := utils.NewestFile(sc.Path("db", "migrate"))
	if err != nil {
		return err
	}
	sc.Log().Debug("Newest migration", logger.WithField("file", migration))

	results, err = mutate.Apply(
		mutate.ConditionalSubstitute{
			Path:        migration,
			Predicate:   mutate.Unless(migration, adminReplacement),
			Pattern:     adminPattern,
			Replacement: adminReplacement,
		},
		mutate.ConditionalSubstitute{
			Path: sc.Path("config", "initializers", "devise.rb"),
			Predicate: version.Predicate{
				Requirement: recipe.SecretKeyRequirement,
				Detect:      sc.railsVersion(ctx),
			},
			Pattern:     secretKeyPattern,
			Replacement: secretKeyReplacement,
		},
	)
	if err != nil {
		return err
	}
	logResults(sc, results)
	return nil
}

// generateUserModel runs the model generator while recording the
// migrations it creates. More than one new migration makes the newest-file
// rule ambiguous, which is reported but not fatal.
func generateUserModel(ctx context.Context, sc *Context) error {
	recipe := sc.recipe()
	args := append([]string{recipe.UserModel}, recipe.UserFields...)

	rec, err := fswatch.NewRecorder(sc.Path("db", "migrate"), sc.Log())
	if err != nil {
		sc.Log().Debug("Migration recording unavailable", logger.WithField("error", err))
	}

	runErr := sc.Generate(ctx, "devise", args...)

	if rec != nil {
		created := rec.Stop()
		if len(created) > 1 {
			sc.Log().Warn("Generator created several migrations; using the newest",
				logger.WithField("migrations", created))
		}
	}
	return runErr
}

func logResult(sc *Context, res mutate.Result) {
	if res.Applied {
		sc.Log().Debug("Applied "+res.Rule, logger.WithField("file", res.Path))
		return
	}
	sc.Log().Debug("Skipped "+res.Rule, logger.WithField("file", res.Path))
}

func logResults(sc *Context, results []mutate.Result) {
	for _, res := range results {
		logResult(sc, res)
	}
}
