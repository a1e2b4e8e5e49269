package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig builds the feed configuration. The base carries values taken
// from flags/environment; when path is non-empty the YAML file overrides
// them field by field.
func LoadConfig(path string, base Config) (*Config, error) {
	config := base

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read feed file: %w", err)
		}

		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse feed file: %w", err)
		}

		mergeConfig(&config, &fileConfig)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func mergeConfig(config, override *Config) {
	if override.URL != "" {
		config.URL = override.URL
	}
	if override.Title != "" {
		config.Title = override.Title
	}
	if override.PollInterval != 0 {
		config.PollInterval = override.PollInterval
	}
	if override.InitialDelay != 0 {
		config.InitialDelay = override.InitialDelay
	}
	if override.FetchTimeout != 0 {
		config.FetchTimeout = override.FetchTimeout
	}
}

func setDefaults(config *Config) {
	if config.PollInterval == 0 {
		config.PollInterval = 300 // seconds
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = 10 // seconds
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = 30 // seconds
	}
}

func validate(config *Config) error {
	if config.URL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if config.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative")
	}
	if config.InitialDelay < 0 {
		return fmt.Errorf("initial delay must be non-negative")
	}
	if config.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must be non-negative")
	}
	return nil
}
