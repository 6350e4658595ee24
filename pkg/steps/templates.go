package steps

import (
	"context"
	"path/filepath"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// CopyTemplates overlays the template's directories onto the project
type CopyTemplates struct{}

func (CopyTemplates) Name() string        { return "copy-templates" }
func (CopyTemplates) Description() string { return "Copy template files" }

func (CopyTemplates) Run(_ context.Context, sc *Context) error {
	if samePath(sc.TemplateRoot, sc.TargetRoot) {
		sc.Log().Warn("Template root is the project directory, nothing to copy",
			logger.WithField("root", sc.TargetRoot))
		return nil
	}

	for _, dir := range sc.recipe().CopyDirs {
		src := sc.TemplatePath(dir)
		dst := sc.Path(dir)
		if err := utils.CopyDirectory(src, dst); err != nil {
			return err
		}
		sc.Log().Debug("Copied directory", logger.WithField("dir", filepath.ToSlash(dir)))
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
