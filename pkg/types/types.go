// Package types provides the recipe and settings shared across jumpstart
package types

import (
	"fmt"
	"strings"
)

// FetcherKind selects how remote templates are cloned
type FetcherKind string

const (
	FetcherGit   FetcherKind = "git"
	FetcherGoGit FetcherKind = "go-git"
)

// LogLevel represents logging verbosity levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DefaultRepository is the template repository used for raw-file locators
const DefaultRepository = "https://github.com/mattrothstein/jumpstart.git"

// DefaultEntry is the entry file name at the end of a raw-file locator
const DefaultEntry = "template.rb"

// Gem is one dependency declaration. Version and the GitHub source are
// optional.
type Gem struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	GitHub  string `json:"github,omitempty" yaml:"github,omitempty" toml:"github,omitempty"`
	Branch  string `json:"branch,omitempty" yaml:"branch,omitempty" toml:"branch,omitempty"`
}

// Line renders the Gemfile declaration for g
func (g Gem) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gem '%s'", g.Name)
	if g.Version != "" {
		fmt.Fprintf(&b, ", '%s'", g.Version)
	}
	if g.GitHub != "" {
		fmt.Fprintf(&b, ", github: '%s'", g.GitHub)
		if g.Branch != "" {
			fmt.Fprintf(&b, ", branch: '%s'", g.Branch)
		}
	}
	return b.String()
}

// Recipe is the data the steps operate on. Overriding it changes what the
// steps write, never which steps run or their order.
type Recipe struct {
	Gems []Gem `json:"gems" yaml:"gems" toml:"gems"`

	// AssetAnchor is the manifest line the asset directives follow.
	AssetAnchor     string   `json:"assetAnchor" yaml:"assetAnchor" toml:"assetAnchor"`
	AssetDirectives []string `json:"assetDirectives" yaml:"assetDirectives" toml:"assetDirectives"`

	UserModel  string   `json:"userModel" yaml:"userModel" toml:"userModel"`
	UserFields []string `json:"userFields" yaml:"userFields" toml:"userFields"`
	RootRoute  string   `json:"rootRoute" yaml:"rootRoute" toml:"rootRoute"`

	// SecretKeyRequirement gates the devise secret key rewrite.
	SecretKeyRequirement string `json:"secretKeyRequirement" yaml:"secretKeyRequirement" toml:"secretKeyRequirement"`

	CopyDirs      []string `json:"copyDirs" yaml:"copyDirs" toml:"copyDirs"`
	CommitMessage string   `json:"commitMessage" yaml:"commitMessage" toml:"commitMessage"`
}

// DefaultRecipe returns the built-in recipe
func DefaultRecipe() *Recipe {
	return &Recipe{
		Gems: []Gem{
			{Name: "haml"},
			{Name: "haml-rails"},
			{Name: "data-confirm-modal", Version: "~> 1.6.2"},
			{Name: "devise", Version: "~> 4.4.3"},
			{Name: "devise-bootstrapped", GitHub: "excid3/devise-bootstrapped", Branch: "bootstrap4"},
			{Name: "font-awesome-sass", Version: "~> 4.7"},
			{Name: "gravatar_image_tag", GitHub: "mdeering/gravatar_image_tag"},
			{Name: "jquery-rails", Version: "~> 4.3.1"},
			{Name: "bootstrap", Version: "~> 4.0.0.beta"},
			{Name: "mini_magick", Version: "~> 4.8"},
		},
		AssetAnchor: "//= require rails-ujs",
		AssetDirectives: []string{
			"//= require jquery",
			"//= require popper",
			"//= require bootstrap",
			"//= require data-confirm-modal",
		},
		UserModel:            "User",
		UserFields:           []string{"name", "announcements_last_read_at:datetime", "admin:boolean"},
		RootRoute:            "home#index",
		SecretKeyRequirement: "> 5.2",
		CopyDirs:             []string{"app", "config", "lib"},
		CommitMessage:        "Initial commit",
	}
}

// Merge fills zero-valued fields of r from defaults
func (r *Recipe) Merge(defaults *Recipe) {
	if defaults == nil {
		return
	}
	if len(r.Gems) == 0 {
		r.Gems = defaults.Gems
	}
	if r.AssetAnchor == "" {
		r.AssetAnchor = defaults.AssetAnchor
	}
	if len(r.AssetDirectives) == 0 {
		r.AssetDirectives = defaults.AssetDirectives
	}
	if r.UserModel == "" {
		r.UserModel = defaults.UserModel
	}
	if len(r.UserFields) == 0 {
		r.UserFields = defaults.UserFields
	}
	if r.RootRoute == "" {
		r.RootRoute = defaults.RootRoute
	}
	if r.SecretKeyRequirement == "" {
		r.SecretKeyRequirement = defaults.SecretKeyRequirement
	}
	if len(r.CopyDirs) == 0 {
		r.CopyDirs = defaults.CopyDirs
	}
	if r.CommitMessage == "" {
		r.CommitMessage = defaults.CommitMessage
	}
}

// NotificationConfig controls desktop notifications
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Settings are the operator-level options read through viper
type Settings struct {
	Template      string             `mapstructure:"template"`
	Repository    string             `mapstructure:"repository"`
	Entry         string             `mapstructure:"entry"`
	Fetcher       FetcherKind        `mapstructure:"fetcher"`
	GitBinary     string             `mapstructure:"git_binary"`
	LogLevel      LogLevel           `mapstructure:"log_level"`
	LogFile       string             `mapstructure:"log_file"`
	Recipe        string             `mapstructure:"recipe"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// Validate checks enumerated settings
func (s *Settings) Validate() error {
	switch s.Fetcher {
	case "", FetcherGit, FetcherGoGit:
	default:
		return fmt.Errorf("unknown fetcher %q (want %q or %q)", s.Fetcher, FetcherGit, FetcherGoGit)
	}
	switch s.LogLevel {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", s.LogLevel)
	}
	return nil
}
