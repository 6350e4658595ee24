package steps

import "context"

// Database creates and migrates the development database
type Database struct{}

func (Database) Name() string        { return "database" }
func (Database) Description() string { return "Create and migrate database" }

func (Database) Run(ctx context.Context, sc *Context) error {
	if err := sc.Run(ctx, "bin/rails", "db:create"); err != nil {
		return err
	}
	return sc.Run(ctx, "bin/rails", "db:migrate")
}
