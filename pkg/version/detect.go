package version

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jumpstart/jumpstart/pkg/process"
)

// ErrNotDetected is returned when neither the lockfile nor the rails
// executable reveals a version.
var ErrNotDetected = errors.New("rails version not detected")

// Rails versions are listed in the lockfile's specs block indented by four
// spaces; dependency constraints are indented by six.
var lockfileRailsPattern = regexp.MustCompile(`(?m)^    rails \(([^)]+)\)\s*$`)

// FromLockfile reads the resolved rails version from Gemfile.lock
func FromLockfile(projectRoot string) (string, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, "Gemfile.lock"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotDetected
		}
		return "", err
	}
	m := lockfileRailsPattern.FindSubmatch(data)
	if m == nil {
		return "", ErrNotDetected
	}
	return string(m[1]), nil
}

// RailsDetector returns a detector that prefers Gemfile.lock and falls back
// to asking bin/rails.
func RailsDetector(ctx context.Context, projectRoot string, runner process.Runner) func() (string, error) {
	return func() (string, error) {
		v, err := FromLockfile(projectRoot)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotDetected) {
			return "", err
		}
		if runner == nil {
			return "", ErrNotDetected
		}

		out, err := runner.Output(ctx, process.Invocation{
			Name: "bin/rails",
			Args: []string{"--version"},
			Dir:  projectRoot,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotDetected, err)
		}
		if _, err := Parse(out); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotDetected, err)
		}
		return out, nil
	}
}
