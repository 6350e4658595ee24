package source

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

// GoGitFetcher clones in-process without a git executable
type GoGitFetcher struct {
	Logger logger.Logger
}

// NewGoGitFetcher creates an in-process fetcher
func NewGoGitFetcher(log logger.Logger) *GoGitFetcher {
	return &GoGitFetcher{Logger: log}
}

// Clone fetches url into dir. No progress writer is set, which keeps the
// clone quiet.
func (f *GoGitFetcher) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	return err
}

// Checkout resolves ref as a tag, local branch, remote branch or hash and
// checks it out detached.
func (f *GoGitFetcher) Checkout(_ context.Context, dir, ref string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}

	hash, err := resolveRef(repo, ref)
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	if f.Logger != nil {
		f.Logger.Debug("Checking out template ref",
			logger.WithField("ref", ref),
			logger.WithField("hash", hash.String()))
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

func resolveRef(repo *git.Repository, ref string) (*plumbing.Hash, error) {
	candidates := []string{ref, "origin/" + ref}
	for _, c := range candidates {
		if h, err := repo.ResolveRevision(plumbing.Revision(c)); err == nil {
			return h, nil
		}
	}
	return nil, fmt.Errorf("unknown revision %q", ref)
}
