// Package config loads recipe overrides from a template root
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jumpstart/jumpstart/pkg/types"
	"github.com/jumpstart/jumpstart/pkg/utils"
)

// RecipeFiles are the names searched for in a template root, in order
var RecipeFiles = []string{"recipe.yaml", "recipe.yml", "recipe.json", "recipe.toml"}

// Manager handles recipe operations
type Manager struct {
	defaults *types.Recipe
}

// NewManager creates a manager that falls back to the built-in recipe
func NewManager() *Manager {
	return &Manager{defaults: types.DefaultRecipe()}
}

// LoadRecipe loads a recipe file and fills unset fields from the defaults.
// The format follows the extension; files without a known extension are
// tried as JSON, then YAML.
func (m *Manager) LoadRecipe(path string) (*types.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var recipe types.Recipe
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &recipe)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &recipe)
	case ".toml":
		err = toml.Unmarshal(data, &recipe)
	default:
		if err = json.Unmarshal(data, &recipe); err != nil {
			err = yaml.Unmarshal(data, &recipe)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe %s: %w", path, err)
	}

	recipe.Merge(m.defaults)
	if err := m.ValidateRecipe(&recipe); err != nil {
		return nil, fmt.Errorf("invalid recipe %s: %w", path, err)
	}
	return &recipe, nil
}

// Resolve returns the recipe for a run: explicit wins, then a recipe file in
// templateRoot, then the defaults. The second result is the file used, or "".
func (m *Manager) Resolve(explicit, templateRoot string) (*types.Recipe, string, error) {
	if explicit != "" {
		r, err := m.LoadRecipe(explicit)
		return r, explicit, err
	}

	if path := FindRecipe(templateRoot); path != "" {
		r, err := m.LoadRecipe(path)
		return r, path, err
	}

	return m.GetDefaultRecipe(), "", nil
}

// FindRecipe returns the first recipe file present in dir
func FindRecipe(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range RecipeFiles {
		path := filepath.Join(dir, name)
		if utils.FileExists(path) {
			return path
		}
	}
	return ""
}

// ValidateRecipe validates a recipe
func (m *Manager) ValidateRecipe(recipe *types.Recipe) error {
	seen := make(map[string]bool)
	for i, gem := range recipe.Gems {
		if gem.Name == "" {
			return fmt.Errorf("gem %d: missing name", i)
		}
		if seen[gem.Name] {
			return fmt.Errorf("duplicate gem: %s", gem.Name)
		}
		seen[gem.Name] = true
		if gem.Branch != "" && gem.GitHub == "" {
			return fmt.Errorf("gem '%s': branch requires github source", gem.Name)
		}
	}

	for _, dir := range recipe.CopyDirs {
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return fmt.Errorf("copy directory %q must be relative to the template root", dir)
		}
	}

	if strings.TrimSpace(recipe.CommitMessage) == "" {
		return fmt.Errorf("missing commit message")
	}
	return nil
}

// GetDefaultRecipe returns a fresh copy of the built-in recipe
func (m *Manager) GetDefaultRecipe() *types.Recipe {
	return types.DefaultRecipe()
}
