// Package config loads the YAML service configuration shared by the CLIs.
// Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Run     RunConfig     `yaml:"run"`
	Sources SourcesConfig `yaml:"sources"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig configures the generator collaborator.
type ModelConfig struct {
	Name            string `yaml:"name"`
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	PromptFile      string `yaml:"prompt_file"`
	MaxOutputTokens int64  `yaml:"max_output_tokens"`
}

// RunConfig configures the pipeline controller.
type RunConfig struct {
	DeadlineSeconds int `yaml:"deadline_seconds"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// SourcesConfig configures the signal providers.
type SourcesConfig struct {
	PhotoExport       string `yaml:"photo_export"`
	CalendarExport    string `yaml:"calendar_export"`
	PhotoLimitDays    int    `yaml:"photo_limit_days"`
	CalendarSinceDays int    `yaml:"calendar_since_days"`
	CalendarUntilDays int    `yaml:"calendar_until_days"`
}

// HistoryConfig configures the case log.
type HistoryConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Name:            "gpt-5-mini",
			MaxOutputTokens: 1200,
		},
		Run: RunConfig{
			DeadlineSeconds: 45,
			CacheTTLSeconds: 300,
		},
		Sources: SourcesConfig{
			PhotoLimitDays:    365,
			CalendarSinceDays: 180,
			CalendarUntilDays: 30,
		},
		Logging: LoggingConfig{Mode: "dev"},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
