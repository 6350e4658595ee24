package steps

import "context"

// Git commits the provisioned project
type Git struct{}

func (Git) Name() string        { return "git" }
func (Git) Description() string { return "Create initial commit" }

func (Git) Run(ctx context.Context, sc *Context) error {
	if err := sc.Run(ctx, "git", "init"); err != nil {
		return err
	}
	if err := sc.Run(ctx, "git", "add", "."); err != nil {
		return err
	}
	return sc.Run(ctx, "git", "commit", "-m", sc.recipe().CommitMessage)
}
