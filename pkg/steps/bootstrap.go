package steps

import (
	"context"
	"strings"

	"github.com/jumpstart/jumpstart/pkg/mutate"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// Bootstrap swaps the default stylesheet for the Bootstrap asset directives
type Bootstrap struct{}

func (Bootstrap) Name() string        { return "bootstrap" }
func (Bootstrap) Description() string { return "Add Bootstrap" }

func (Bootstrap) Run(_ context.Context, sc *Context) error {
	recipe := sc.recipe()

	if err := utils.RemoveFile(sc.Path("app", "assets", "stylesheets", "application.css")); err != nil {
		return err
	}

	res, err := mutate.InsertAfter{
		Path:    sc.Path("app", "assets", "javascripts", "application.js"),
		Anchor:  recipe.AssetAnchor,
		Payload: strings.Join(recipe.AssetDirectives, "\n"),
	}.Apply()
	if err != nil {
		return err
	}
	logResult(sc, res)
	return nil
}
