// Package cli provides the command-line interface for jumpstart
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jumpstart/jumpstart/internal/engine"
	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/types"
)

// CLI owns the command tree and everything it needs to run
type CLI struct {
	config    *Config
	rootCmd   *cobra.Command
	viper     *viper.Viper
	settings  *types.Settings
	logger    logger.Logger
	output    io.Writer
	errorOut  io.Writer
	overrides engine.Dependencies
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(config *Config) *CLI {
	if config == nil {
		config = NewConfig()
	}

	c := &CLI{
		config:   config,
		viper:    viper.New(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}

	c.setupCommands()
	return c
}

// NewCLIWithOutput creates a CLI with custom output writers (for testing)
func NewCLIWithOutput(config *Config, output, errorOut io.Writer) *CLI {
	c := NewCLI(config)
	c.output = output
	c.errorOut = errorOut
	c.rootCmd.SetOut(output)
	c.rootCmd.SetErr(errorOut)
	return c
}

// SetOverrides replaces engine collaborators, mainly for tests
func (c *CLI) SetOverrides(deps engine.Dependencies) {
	c.overrides = deps
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "jumpstart [locator] [project-dir]",
		Short: "Provision a freshly generated Rails app into a starter project",
		Long: `⚡ jumpstart applies a fixed sequence of provisioning steps to a new Rails
application: gems, Devise users, Bootstrap, HAML views, template files,
database setup and an initial commit.

The locator names the template. An http(s) URL is cloned into a temporary
directory for the duration of the run; anything else is a local directory.`,
		Args:              cobra.MaximumNArgs(2),
		PersistentPreRunE: c.initializeConfig,
		RunE:              c.runProvision,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("⚡ jumpstart v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newStepsCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()
	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: ./jumpstart.yaml)")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")

	local := c.rootCmd.Flags()
	local.String("recipe", "", "recipe file overriding the template's recipe")
	local.String("fetcher", "", "remote fetcher (git or go-git)")
	local.String("log-file", "", "also append logs to this file")
	local.Bool("notify", false, "show a desktop notification when the run ends")

	_ = c.viper.BindPFlag("recipe", local.Lookup("recipe"))
	_ = c.viper.BindPFlag("fetcher", local.Lookup("fetcher"))
	_ = c.viper.BindPFlag("log_file", local.Lookup("log-file"))
	_ = c.viper.BindPFlag("notifications.enabled", local.Lookup("notify"))
}

func (c *CLI) initializeConfig(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(c.viper, c.config.ConfigFile)
	if err != nil {
		return err
	}

	level := string(settings.LogLevel)
	if cmd.Flags().Changed("verbosity") || level == "" {
		level = c.config.Verbosity
	}
	settings.LogLevel = types.LogLevel(level)
	c.settings = settings

	if c.errorOut == os.Stderr {
		c.logger = logger.CreateLogger(settings.LogFile, level)
	} else {
		c.logger = logger.CreateLoggerWithOutput(level, c.errorOut)
	}

	if used := c.viper.ConfigFileUsed(); used != "" {
		c.logger.Debug("Using config file", logger.WithField("file", used))
	}
	return nil
}

// Helper methods for console output

func (c *CLI) printSuccess(message string) {
	fmt.Fprintf(c.output, "%s %s\n", color.GreenString("[jumpstart]"), message)
}

func (c *CLI) printInfo(message string) {
	fmt.Fprintf(c.output, "%s %s\n", color.CyanString("[jumpstart]"), message)
}

// PrintError writes err to w the way main reports fatal errors
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("[jumpstart]"), err)
}

// ExitCode maps a run error to the process exit status: the failing
// subprocess's own code, 128+signal after an interrupt, otherwise 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var interrupted *engine.InterruptedError
	if errors.As(err, &interrupted) {
		return interrupted.ExitCode()
	}
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
