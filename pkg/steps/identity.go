package steps

import (
	"context"

	"github.com/jumpstart/jumpstart/pkg/mutate"
)

// ApplicationName records the application name in config/application.rb
type ApplicationName struct{}

func (ApplicationName) Name() string        { return "application-name" }
func (ApplicationName) Description() string { return "Configure application name" }

func (ApplicationName) Run(_ context.Context, sc *Context) error {
	res, err := mutate.InsertAfter{
		Path:    sc.Path("config", "application.rb"),
		Anchor:  "class Application < Rails::Application",
		Payload: "    config.application_name = Rails.application.class.parent_name",
	}.Apply()
	if err != nil {
		return err
	}
	logResult(sc, res)

	sc.Announce("You can change application name inside: ./config/application.rb")
	return nil
}
