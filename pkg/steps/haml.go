package steps

import "context"

// Haml converts the generated ERB views. The rake task asks before deleting
// the originals unless HAML_RAILS_DELETE_ERB is set.
type Haml struct{}

func (Haml) Name() string        { return "haml" }
func (Haml) Description() string { return "Convert views to HAML" }

func (Haml) Run(ctx context.Context, sc *Context) error {
	return sc.RunEnv(ctx, []string{"HAML_RAILS_DELETE_ERB=true"}, "bundle", "exec", "rake", "haml:erb2haml")
}
