package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClassifierSettings tunes the LLM classifier. Values not set in the YAML
// file keep their defaults.
type ClassifierSettings struct {
	Model                 string `yaml:"model"`
	MaxConcurrency        int    `yaml:"max_concurrency"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// DefaultClassifierSettings returns the settings used when no YAML file is
// present
func DefaultClassifierSettings() ClassifierSettings {
	return ClassifierSettings{
		Model:                 "gpt-4o-mini",
		MaxConcurrency:        5,
		RequestTimeoutSeconds: 60,
	}
}

// LoadClassifierSettings reads classifier settings from a YAML file. A
// missing file is not an error; defaults are returned.
func LoadClassifierSettings(path string) (ClassifierSettings, error) {
	settings := DefaultClassifierSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read classifier config: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse classifier config: %w", err)
	}

	if settings.Model == "" {
		settings.Model = DefaultClassifierSettings().Model
	}
	if settings.MaxConcurrency <= 0 {
		settings.MaxConcurrency = DefaultClassifierSettings().MaxConcurrency
	}
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = DefaultClassifierSettings().RequestTimeoutSeconds
	}

	return settings, nil
}

// RequestTimeout returns the per-request timeout as a duration
func (s ClassifierSettings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}
