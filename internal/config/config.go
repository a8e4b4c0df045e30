// Package config loads tunable parameters from an optional YAML file.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config carries every tunable the core reads. Defaults match the values
// the scheduler and adaptation engine were calibrated with; a config file
// only needs to name the keys it overrides.
type Config struct {
	SRS    SRSConfig    `mapstructure:"srs"`
	Adapt  AdaptConfig  `mapstructure:"adapt"`
	Intake IntakeConfig `mapstructure:"intake"`
}

type SRSConfig struct {
	// FastLatencyMs is the response-time cutoff under which a correct
	// auto-graded answer earns quality 5 instead of 4.
	FastLatencyMs int `mapstructure:"fast_latency_ms"`
}

type AdaptConfig struct {
	// WindowSize is the fixed event count examined per category window.
	WindowSize   int `mapstructure:"window_size"`
	MinSample    int `mapstructure:"min_sample"`
	BaseNewLimit int `mapstructure:"base_new_limit"`
	MinNewLimit  int `mapstructure:"min_new_limit"`
}

type IntakeConfig struct {
	// DefaultLimit is the queue size used when a caller passes none.
	DefaultLimit int `mapstructure:"default_limit"`
}

// Load reads configuration from configFile, or from config.yaml in the
// working directory or $HOME/.config/singular when no file is given.
// A missing config file is not an error; defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/singular")
	}

	v.SetDefault("srs.fast_latency_ms", 5000)
	v.SetDefault("adapt.window_size", 20)
	v.SetDefault("adapt.min_sample", 5)
	v.SetDefault("adapt.base_new_limit", 20)
	v.SetDefault("adapt.min_new_limit", 5)
	v.SetDefault("intake.default_limit", 20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects parameter combinations the engines cannot run with.
func (c *Config) Validate() error {
	if c.SRS.FastLatencyMs <= 0 {
		return fmt.Errorf("srs.fast_latency_ms must be positive, got %d", c.SRS.FastLatencyMs)
	}
	if c.Adapt.WindowSize <= 0 {
		return fmt.Errorf("adapt.window_size must be positive, got %d", c.Adapt.WindowSize)
	}
	if c.Adapt.MinSample <= 0 || c.Adapt.MinSample > c.Adapt.WindowSize {
		return fmt.Errorf("adapt.min_sample must be in 1..window_size, got %d", c.Adapt.MinSample)
	}
	if c.Adapt.MinNewLimit < 0 || c.Adapt.MinNewLimit > c.Adapt.BaseNewLimit {
		return fmt.Errorf("adapt.min_new_limit must be in 0..base_new_limit, got %d", c.Adapt.MinNewLimit)
	}
	if c.Intake.DefaultLimit <= 0 {
		return fmt.Errorf("intake.default_limit must be positive, got %d", c.Intake.DefaultLimit)
	}
	return nil
}
