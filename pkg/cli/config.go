package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jumpstart/jumpstart/pkg/types"
)

// Config holds the CLI flags, keeping command state off package globals
type Config struct {
	ConfigFile string
	Verbosity  string
	Version    string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		Verbosity: "info",
		Version:   "dev",
	}
}

// setDefaults registers every settings key so env overrides apply even
// when no config file exists.
func setDefaults(v *viper.Viper) {
	v.SetDefault("template", "")
	v.SetDefault("repository", types.DefaultRepository)
	v.SetDefault("entry", types.DefaultEntry)
	v.SetDefault("fetcher", string(types.FetcherGit))
	v.SetDefault("git_binary", "git")
	v.SetDefault("log_level", string(types.LogLevelInfo))
	v.SetDefault("log_file", "")
	v.SetDefault("recipe", "")
	v.SetDefault("notifications.enabled", false)
}

// loadSettings reads jumpstart.yaml (or the --config file) and JUMPSTART_*
// environment variables into Settings.
func loadSettings(v *viper.Viper, configFile string) (*types.Settings, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("jumpstart")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("JUMPSTART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings types.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}
