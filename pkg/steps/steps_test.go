package steps_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/mocks"
	"github.com/jumpstart/jumpstart/pkg/mutate"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/steps"
	"github.com/jumpstart/jumpstart/pkg/types"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

const userMigration = `class DeviseCreateUsers < ActiveRecord::Migration[5.2]
  def change
    create_table :users do |t|
      t.string :name
      t.datetime :announcements_last_read_at
      t.boolean :admin
    end
  end
end
`

var skeleton = map[string]string{
	"Gemfile": "source 'https://rubygems.org'\n\ngem 'rails', '~> 5.2.0'\ngem \"haml\"\n",
	"config/application.rb": `module Blog
  class Application < Rails::Application
    config.load_defaults 5.2
  end
end
`,
	"config/environments/development.rb":     "Rails.application.configure do\n  config.cache_classes = false\nend\n",
	"config/routes.rb":                       "Rails.application.routes.draw do\nend\n",
	"app/assets/stylesheets/application.css": "/* default */\n",
	"app/assets/javascripts/application.js":  "//= require rails-ujs\n//= require activestorage\n//= require_tree .\n",
}

const deviseInitializer = "Devise.setup do |config|\n  # config.secret_key = 'generated'\nend\n"

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// simulateGenerators makes the generators write their files into target
func simulateGenerators(t *testing.T, runner *mocks.MockRunner, target string) {
	t.Helper()
	runner.OnRun("bin/rails generate devise:install", func(process.Invocation) error {
		writeTree(t, target, map[string]string{"config/initializers/devise.rb": deviseInitializer})
		return nil
	})
	runner.OnRun("bin/rails generate devise User", func(process.Invocation) error {
		writeTree(t, target, map[string]string{"db/migrate/20180601120000_devise_create_users.rb": userMigration})
		return nil
	})
}

func newContext(t *testing.T, runner process.Runner, railsVersion string) (*steps.Context, *bytes.Buffer) {
	t.Helper()
	target := t.TempDir()
	template := t.TempDir()
	writeTree(t, target, skeleton)
	writeTree(t, template, map[string]string{
		"app/views/home/index.html.haml":              "%h1 Home\n",
		"config/routes.rb":                            "Rails.application.routes.draw do\n  root to: 'home#index'\n  resources :announcements\nend\n",
		"lib/templates/haml/scaffold/_form.html.haml": "= form\n",
		"template.rb":                                 "# entry\n",
	})

	out := &bytes.Buffer{}
	return &steps.Context{
		TargetRoot:    target,
		TemplateRoot:  template,
		Runner:        runner,
		Logger:        logger.NewNopLogger(),
		Recipe:        types.DefaultRecipe(),
		Out:           out,
		DetectVersion: func() (string, error) { return railsVersion, nil },
	}, out
}

func TestDefault_FixedOrder(t *testing.T) {
	var names []string
	for _, st := range steps.Default() {
		names = append(names, st.Name())
	}
	assert.Equal(t, []string{
		"declare-gems", "bundle-install", "application-name", "users",
		"bootstrap", "haml", "copy-templates", "database", "git",
	}, names)
}

func TestSequencer_FullRun(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, out := newContext(t, runner, "5.2.1")
	target := sc.TargetRoot
	simulateGenerators(t, runner, target)

	err := steps.NewSequencer(logger.NewNopLogger()).Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bundle install",
		"bin/rails generate devise:install",
		"bin/rails generate devise:views:bootstrapped",
		"bin/rails generate devise User name announcements_last_read_at:datetime admin:boolean",
		"bundle exec rake haml:erb2haml",
		"bin/rails db:create",
		"bin/rails db:migrate",
		"git init",
		"git add .",
		"git commit -m Initial commit",
	}, runner.Commands())

	for _, inv := range runner.Invocations() {
		assert.Equal(t, target, inv.Dir, inv.String())
	}
	haml := runner.Invocations()[4]
	assert.Equal(t, []string{"HAML_RAILS_DELETE_ERB=true"}, haml.Env)

	gemfile := read(t, filepath.Join(target, "Gemfile"))
	assert.Equal(t, 1, strings.Count(gemfile, "haml'")+strings.Count(gemfile, "haml\""), "haml declared once")
	assert.Contains(t, gemfile, "gem 'devise-bootstrapped', github: 'excid3/devise-bootstrapped', branch: 'bootstrap4'\n")
	assert.Contains(t, gemfile, "gem 'bootstrap', '~> 4.0.0.beta'\n")

	assert.Contains(t, read(t, filepath.Join(target, "config/application.rb")),
		"  class Application < Rails::Application\n    config.application_name = Rails.application.class.parent_name\n")
	assert.Contains(t, out.String(), "You can change application name inside: ./config/application.rb")

	assert.Contains(t, read(t, filepath.Join(target, "config/environments/development.rb")),
		"Rails.application.configure do\n  config.action_mailer.default_url_options = { host: 'localhost', port: 3000 }\n")
	assert.Contains(t, read(t, filepath.Join(target, "db/migrate/20180601120000_devise_create_users.rb")),
		"t.boolean :admin, default: false\n")
	assert.Contains(t, read(t, filepath.Join(target, "config/initializers/devise.rb")),
		"  config.secret_key = Rails.application.credentials.secret_key_base\n")

	assert.NoFileExists(t, filepath.Join(target, "app/assets/stylesheets/application.css"))
	assert.Equal(t, `//= require rails-ujs
//= require jquery
//= require popper
//= require bootstrap
//= require data-confirm-modal
//= require activestorage
//= require_tree .
`, read(t, filepath.Join(target, "app/assets/javascripts/application.js")))

	// copy-templates overwrote the routes file written earlier
	assert.Equal(t, "Rails.application.routes.draw do\n  root to: 'home#index'\n  resources :announcements\nend\n",
		read(t, filepath.Join(target, "config/routes.rb")))
	assert.FileExists(t, filepath.Join(target, "app/views/home/index.html.haml"))
	assert.FileExists(t, filepath.Join(target, "lib/templates/haml/scaffold/_form.html.haml"))
	assert.NoFileExists(t, filepath.Join(target, "template.rb"))
}

func TestSequencer_BundleFailureHaltsRun(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.FailOn("bundle install", 7)
	sc, _ := newContext(t, runner, "5.2.1")

	err := steps.NewSequencer(nil).Run(context.Background(), sc)

	var stepErr *steps.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "bundle-install", stepErr.Step)
	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.Code)

	assert.Equal(t, []string{"bundle install"}, runner.Commands())
	assert.Equal(t, skeleton["config/application.rb"], read(t, filepath.Join(sc.TargetRoot, "config/application.rb")))
}

func TestSequencer_MutationFailureNamesFileAndAnchor(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.2.1")
	writeTree(t, sc.TargetRoot, map[string]string{"config/application.rb": "module Blog\nend\n"})

	err := steps.NewSequencer(nil).Run(context.Background(), sc)

	var stepErr *steps.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "application-name", stepErr.Step)
	assert.True(t, errors.Is(err, mutate.ErrNotFound))
	assert.Contains(t, err.Error(), "application.rb")
	assert.Contains(t, err.Error(), "class Application < Rails::Application")
	assert.Equal(t, []string{"bundle install"}, runner.Commands())
}

func TestSequencer_CancelledContext(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.2.1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := steps.NewSequencer(nil).Run(ctx, sc)

	var stepErr *steps.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "declare-gems", stepErr.Step)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.Commands())
}

func TestUsers_ModifiesOnlyNewestMigration(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.2.1")
	target := sc.TargetRoot
	writeTree(t, target, map[string]string{"config/initializers/devise.rb": deviseInitializer})

	base := time.Now().Add(-time.Hour)
	files := []struct {
		name string
		mod  time.Time
	}{
		{"20200101000000_add_admin_to_posts.rb", base},                       // T1
		{"20190101000000_add_admin_to_comments.rb", base.Add(time.Minute)},   // T2
		{"20170101000000_devise_create_users.rb", base.Add(2 * time.Minute)}, // T3
	}
	for _, f := range files {
		path := filepath.Join(target, "db", "migrate", f.name)
		writeTree(t, target, map[string]string{"db/migrate/" + f.name: "t.boolean :admin\n"})
		require.NoError(t, os.Chtimes(path, f.mod, f.mod))
	}

	require.NoError(t, steps.Users{}.Run(context.Background(), sc))

	assert.Equal(t, "t.boolean :admin\n", read(t, filepath.Join(target, "db/migrate", files[0].name)))
	assert.Equal(t, "t.boolean :admin\n", read(t, filepath.Join(target, "db/migrate", files[1].name)))
	assert.Equal(t, "t.boolean :admin, default: false\n", read(t, filepath.Join(target, "db/migrate", files[2].name)))
}

func TestUsers_OldRailsKeepsSecretKeyComment(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.1.6")
	simulateGenerators(t, runner, sc.TargetRoot)

	require.NoError(t, steps.Users{}.Run(context.Background(), sc))

	assert.Equal(t, deviseInitializer, read(t, filepath.Join(sc.TargetRoot, "config/initializers/devise.rb")))
}

func TestUsers_DetectsVersionFromLockfile(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "")
	sc.DetectVersion = nil
	simulateGenerators(t, runner, sc.TargetRoot)
	writeTree(t, sc.TargetRoot, map[string]string{
		"Gemfile.lock": "GEM\n  specs:\n    rails (6.0.3.2)\n      actionpack (= 6.0.3.2)\n",
	})

	require.NoError(t, steps.Users{}.Run(context.Background(), sc))

	assert.Contains(t, read(t, filepath.Join(sc.TargetRoot, "config/initializers/devise.rb")),
		"Rails.application.credentials.secret_key_base")
	for _, cmd := range runner.Commands() {
		assert.NotEqual(t, "bin/rails --version", cmd)
	}
}

func TestUsers_MissingMigrationsDirectory(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.2.1")
	writeTree(t, sc.TargetRoot, map[string]string{"config/initializers/devise.rb": deviseInitializer})

	err := steps.Users{}.Run(context.Background(), sc)

	var ioErr *utils.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestBootstrap_ToleratesMissingStylesheet(t *testing.T) {
	sc, _ := newContext(t, mocks.NewMockRunner(), "5.2.1")
	require.NoError(t, os.Remove(filepath.Join(sc.TargetRoot, "app/assets/stylesheets/application.css")))

	require.NoError(t, steps.Bootstrap{}.Run(context.Background(), sc))
	require.NoError(t, steps.Bootstrap{}.Run(context.Background(), sc))

	js := read(t, filepath.Join(sc.TargetRoot, "app/assets/javascripts/application.js"))
	assert.Equal(t, 1, strings.Count(js, "//= require bootstrap\n"))
}

func TestCopyTemplates_MissingSourceDirectory(t *testing.T) {
	sc, _ := newContext(t, mocks.NewMockRunner(), "5.2.1")
	sc.Recipe.CopyDirs = []string{"app", "vendor"}

	err := steps.CopyTemplates{}.Run(context.Background(), sc)

	var ioErr *utils.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.FileExists(t, filepath.Join(sc.TargetRoot, "app/views/home/index.html.haml"))
}

func TestGit_UsesRecipeCommitMessage(t *testing.T) {
	runner := mocks.NewMockRunner()
	sc, _ := newContext(t, runner, "5.2.1")
	sc.Recipe.CommitMessage = "Scaffold blog"

	require.NoError(t, steps.Git{}.Run(context.Background(), sc))

	invs := runner.Invocations()
	require.Len(t, invs, 3)
	assert.Equal(t, []string{"commit", "-m", "Scaffold blog"}, invs[2].Args)
}

func TestDatabase_StopsAfterCreateFailure(t *testing.T) {
	runner := mocks.NewMockRunner()
	runner.FailOn("bin/rails db:create", 1)
	sc, _ := newContext(t, runner, "5.2.1")

	err := steps.Database{}.Run(context.Background(), sc)

	assert.ErrorIs(t, err, process.ErrSubprocessFailed)
	assert.Equal(t, []string{"bin/rails db:create"}, runner.Commands())
}

func TestCopyTemplates_TemplateIsProject(t *testing.T) {
	sc, _ := newContext(t, mocks.NewMockRunner(), "5.2.1")
	sc.TemplateRoot = sc.TargetRoot + string(filepath.Separator)

	require.NoError(t, steps.CopyTemplates{}.Run(context.Background(), sc))
	assert.Equal(t, skeleton["config/routes.rb"], read(t, filepath.Join(sc.TargetRoot, "config/routes.rb")))
}
