package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

// Invocation describes one external program call
type Invocation struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the runner's default.
	Dir string
	// Env entries are appended to the current environment.
	Env []string
}

// String renders the invocation the way an operator would type it
func (inv Invocation) String() string {
	parts := append([]string{inv.Name}, inv.Args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t'\"") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}

// Runner executes external programs synchronously
type Runner interface {
	// Run streams the program's output to the operator and reports a
	// non-zero exit as *ExitError.
	Run(ctx context.Context, inv Invocation) error
	// Output captures stdout instead of streaming it.
	Output(ctx context.Context, inv Invocation) (string, error)
}

// ExecRunner runs programs with os/exec
type ExecRunner struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger logger.Logger
}

// NewExecRunner creates a runner rooted at dir that passes output through to
// the process's own stdio.
func NewExecRunner(dir string, log logger.Logger) *ExecRunner {
	return &ExecRunner{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: log,
	}
}

// Run executes the invocation and blocks until it exits
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	cmd := r.createCommand(ctx, inv)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	start := time.Now()
	if r.Logger != nil {
		r.Logger.Info("run " + inv.String())
	}

	if err := cmd.Run(); err != nil {
		return wrapRunError(inv, err)
	}

	if r.Logger != nil {
		r.Logger.Debug("command finished",
			logger.WithField("command", inv.Name),
			logger.WithField("duration", time.Since(start).Round(time.Millisecond)))
	}
	return nil
}

// Output executes the invocation and returns its trimmed stdout
func (r *ExecRunner) Output(ctx context.Context, inv Invocation) (string, error) {
	cmd := r.createCommand(ctx, inv)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = r.Stderr

	if r.Logger != nil {
		r.Logger.Debug("capture " + inv.String())
	}

	if err := cmd.Run(); err != nil {
		return "", wrapRunError(inv, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// createCommand creates an exec.Cmd for the invocation
func (r *ExecRunner) createCommand(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)

	cmd.Dir = r.Dir
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}

	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	return cmd
}

func wrapRunError(inv Invocation, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: inv.String(), Code: exitErr.ExitCode(), Err: err}
	}
	return &ExitError{Command: inv.String(), Code: -1, Err: err}
}
