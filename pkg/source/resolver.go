package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/process"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// Resolved is the effective template root
type Resolved struct {
	Root      string
	Locator   Locator
	Temporary bool
}

// Fetcher clones url into dir and, when ref is non-empty, checks it out
type Fetcher interface {
	Clone(ctx context.Context, url, dir string) error
	Checkout(ctx context.Context, dir, ref string) error
}

// Registrar receives cleanup handlers; *process.Manager satisfies it
type Registrar interface {
	RegisterShutdownHandler(handler func() error)
}

// Resolver turns a Locator into an effective root
type Resolver struct {
	Fetcher Fetcher
	Cleanup Registrar
	Logger  logger.Logger
	// TempDir is the parent for clone directories; empty means os.TempDir.
	TempDir string
}

// NewResolver creates a resolver that registers releases with cleanup
func NewResolver(fetcher Fetcher, cleanup Registrar, log logger.Logger) *Resolver {
	return &Resolver{Fetcher: fetcher, Cleanup: cleanup, Logger: log}
}

// Resolve returns the effective root and its release function. Release is
// safe to call more than once and is also registered with r.Cleanup, so it
// runs even when the caller never reaches its own deferred call.
func (r *Resolver) Resolve(ctx context.Context, loc Locator) (Resolved, func() error, error) {
	if loc.Kind == Local {
		if !utils.Exists(loc.Path) {
			return Resolved{}, nil, &Error{Locator: loc, Op: "open", Err: fs.ErrNotExist}
		}
		return Resolved{Root: loc.Path, Locator: loc}, func() error { return nil }, nil
	}

	if r.Fetcher == nil {
		return Resolved{}, nil, &Error{Locator: loc, Op: "clone", Err: fmt.Errorf("no fetcher configured")}
	}

	dir, err := os.MkdirTemp(r.TempDir, "jumpstart-")
	if err != nil {
		return Resolved{}, nil, &Error{Locator: loc, Op: "mkdtemp", Err: err}
	}

	release := r.releaseFunc(dir)
	if r.Cleanup != nil {
		r.Cleanup.RegisterShutdownHandler(release)
	}

	log := r.logger()
	log.Info("Fetching template",
		logger.WithField("url", loc.URL),
		logger.WithField("ref", loc.Ref))

	if err := r.Fetcher.Clone(ctx, loc.URL, dir); err != nil {
		return Resolved{}, release, &Error{Locator: loc, Op: "clone", Err: err}
	}

	if loc.Ref != "" {
		if err := r.Fetcher.Checkout(ctx, dir, loc.Ref); err != nil {
			return Resolved{}, release, &Error{Locator: loc, Op: "checkout", Err: err}
		}
	}

	log.Debug("Template ready", logger.WithField("root", dir))
	return Resolved{Root: dir, Locator: loc, Temporary: true}, release, nil
}

func (r *Resolver) releaseFunc(dir string) func() error {
	var once sync.Once
	var err error
	return func() error {
		once.Do(func() {
			r.logger().Debug("Removing template clone", logger.WithField("dir", dir))
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				err = fmt.Errorf("remove template clone %s: %w", dir, rmErr)
			}
		})
		return err
	}
}

func (r *Resolver) logger() logger.Logger {
	if r.Logger == nil {
		return logger.NewNopLogger()
	}
	return r.Logger
}

// GitFetcher shells out to the git executable
type GitFetcher struct {
	Runner process.Runner
	Binary string
}

// NewGitFetcher creates a fetcher that runs binary (default "git")
func NewGitFetcher(runner process.Runner, binary string) *GitFetcher {
	if binary == "" {
		binary = "git"
	}
	return &GitFetcher{Runner: runner, Binary: binary}
}

// Clone runs a quiet clone so only failures reach the operator
func (f *GitFetcher) Clone(ctx context.Context, url, dir string) error {
	return f.Runner.Run(ctx, process.Invocation{
		Name: f.Binary,
		Args: []string{"clone", "--quiet", url, dir},
	})
}

// Checkout switches the clone to ref
func (f *GitFetcher) Checkout(ctx context.Context, dir, ref string) error {
	return f.Runner.Run(ctx, process.Invocation{
		Name: f.Binary,
		Args: []string{"checkout", "--quiet", ref},
		Dir:  dir,
	})
}
