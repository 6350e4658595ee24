package steps

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/types"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// DeclareGems collects the dependency set. Nothing touches disk until the
// bundle step.
type DeclareGems struct{}

func (DeclareGems) Name() string        { return "declare-gems" }
func (DeclareGems) Description() string { return "Declare gems" }

func (DeclareGems) Run(_ context.Context, sc *Context) error {
	seen := make(map[string]bool)
	sc.Gems = sc.Gems[:0]
	for _, gem := range sc.recipe().Gems {
		if seen[gem.Name] {
			continue
		}
		seen[gem.Name] = true
		sc.Gems = append(sc.Gems, gem)
	}
	sc.Log().Debug("Gems declared", logger.WithField("count", len(sc.Gems)))
	return nil
}

// BundleInstall writes missing declarations into the Gemfile and installs
// them. It is the phase boundary: every later step assumes it succeeded.
type BundleInstall struct{}

func (BundleInstall) Name() string        { return "bundle-install" }
func (BundleInstall) Description() string { return "Install gems" }
func (BundleInstall) PhaseBoundary() bool { return true }

func (BundleInstall) Run(ctx context.Context, sc *Context) error {
	gemfile := sc.Path("Gemfile")
	added, err := appendGems(gemfile, sc.Gems)
	if err != nil {
		return err
	}
	sc.Log().Debug("Gemfile updated", logger.WithField("added", added))

	return sc.Run(ctx, "bundle", "install")
}

// appendGems adds a line for each gem the Gemfile does not declare yet and
// returns how many were added.
func appendGems(path string, gems []types.Gem) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &utils.IOError{Op: "stat", Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &utils.IOError{Op: "read", Path: path, Err: err}
	}

	content := string(data)
	var lines []string
	for _, gem := range gems {
		if declaresGem(content, gem.Name) {
			continue
		}
		lines = append(lines, gem.Line())
	}
	if len(lines) == 0 {
		return 0, nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n" + strings.Join(lines, "\n") + "\n"

	if err := utils.WriteFileAtomic(path, []byte(content), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func declaresGem(gemfile, name string) bool {
	re := regexp.MustCompile(fmt.Sprintf(`(?m)^\s*gem\s+['"]%s['"]`, regexp.QuoteMeta(name)))
	return re.MatchString(gemfile)
}
