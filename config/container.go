package config

import (
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"
)

// ConfigPathEnvVar overrides config file discovery when set. The CLI entry
// point sets it from the --config flag before the container is built.
const ConfigPathEnvVar = "MARKPEEK_REMOTES_CONFIG"

// Resolve loads settings from the path in MARKPEEK_REMOTES_CONFIG, from a
// discovered config file, or falls back to built-in defaults.
func Resolve() (*Settings, error) {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		settings, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
		logger.Debugf("Loaded configuration from %q", path)
		return settings, nil
	}

	path, err := FindConfigFile()
	if err != nil {
		logger.Debug("No config file found, using defaults")
		return Default(), nil
	}

	settings, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}
	logger.Debugf("Loaded configuration from %q", path)
	return settings, nil
}

func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(Resolve); err != nil {
		return fmt.Errorf("failed to provide the settings: %w", err)
	}
	return nil
}
