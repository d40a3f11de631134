// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads tool configuration from YAML files, with defaults
// applied for anything unset. Command-line flags override loaded values at the
// call site.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"keysweep/internal/orchestrator"
	"keysweep/internal/validation"
)

// Config represents the complete configuration structure.
type Config struct {
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Scan       ScanConfig       `yaml:"scan"`
	Validation ValidationConfig `yaml:"validation"`
}

// DefaultsConfig holds output and verbosity defaults.
type DefaultsConfig struct {
	Format           string   `yaml:"format"`
	ConfidenceLevels []string `yaml:"confidence_levels"`
	NoColor          bool     `yaml:"no_color"`
	Debug            bool     `yaml:"debug"`
}

// ScanConfig holds traversal limits and filters.
type ScanConfig struct {
	MaxFileSizeBytes   int64    `yaml:"max_file_size_bytes"`
	IncludePaths       []string `yaml:"include_paths"`
	ExcludePaths       []string `yaml:"exclude_paths"`
	Extensions         []string `yaml:"extensions"`
	FollowSymlinks     bool     `yaml:"follow_symlinks"`
	MaxDepth           int      `yaml:"max_depth"`
	ReadTimeoutSeconds int      `yaml:"read_timeout_seconds"`
	MaxWarnings        int      `yaml:"max_warnings"`
}

// ValidationConfig holds the external validator settings.
type ValidationConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Command         string `yaml:"command"`
	BatchSize       int    `yaml:"batch_size"`
	Workers         int    `yaml:"workers"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryIntervalMS int    `yaml:"retry_interval_ms"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Format:           "text",
			ConfidenceLevels: []string{"high", "medium", "low"},
		},
		Scan: ScanConfig{
			MaxFileSizeBytes:   50 * 1024 * 1024,
			ExcludePaths:       []string{".git", "node_modules"},
			MaxDepth:           16,
			ReadTimeoutSeconds: 30,
			MaxWarnings:        100,
		},
		Validation: ValidationConfig{
			BatchSize:       25,
			Workers:         4,
			MaxRetries:      3,
			RetryIntervalMS: 500,
			TimeoutSeconds:  60,
		},
	}
}

// LoadConfig loads configuration from the specified file path. Values absent
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

// LoadConfigOrDefault loads the discovered config file, or returns defaults
// when none exists.
func LoadConfigOrDefault() *Config {
	path := FindConfigFile()
	if path == "" {
		return DefaultConfig()
	}
	config, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return config
}

// FindConfigFile looks for a config file in standard locations: the working
// directory first, then the user config directory.
func FindConfigFile() string {
	candidates := []string{
		".keysweep.yaml",
		".keysweep.yml",
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(configDir, "keysweep", "config.yaml"),
			filepath.Join(configDir, "keysweep", "config.yml"),
		)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func (c *Config) validate() error {
	switch c.Defaults.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.Defaults.Format)
	}
	if c.Scan.MaxFileSizeBytes < 0 {
		return fmt.Errorf("scan.max_file_size_bytes must not be negative")
	}
	if c.Scan.MaxDepth < 0 {
		return fmt.Errorf("scan.max_depth must not be negative")
	}
	if c.Validation.Enabled && c.Validation.Command == "" {
		return fmt.Errorf("validation.command is required when validation is enabled")
	}
	if c.Validation.BatchSize < 0 || c.Validation.Workers < 0 || c.Validation.MaxRetries < 0 {
		return fmt.Errorf("validation sizes must not be negative")
	}
	return nil
}

// ScanOptions maps the scan section onto orchestrator options.
func (c *Config) ScanOptions() orchestrator.Options {
	opts := orchestrator.DefaultOptions()
	opts.MaxFileSize = c.Scan.MaxFileSizeBytes
	opts.IncludePaths = c.Scan.IncludePaths
	opts.ExcludePaths = c.Scan.ExcludePaths
	opts.Extensions = c.Scan.Extensions
	opts.FollowSymlinks = c.Scan.FollowSymlinks
	if c.Scan.MaxDepth > 0 {
		opts.MaxDepth = c.Scan.MaxDepth
	}
	if c.Scan.ReadTimeoutSeconds > 0 {
		opts.ReadTimeout = time.Duration(c.Scan.ReadTimeoutSeconds) * time.Second
	}
	if c.Scan.MaxWarnings > 0 {
		opts.MaxWarnings = c.Scan.MaxWarnings
	}
	return opts
}

// CoordinatorConfig maps the validation section onto coordinator settings.
func (c *Config) CoordinatorConfig() validation.Config {
	cfg := validation.DefaultConfig()
	if c.Validation.BatchSize > 0 {
		cfg.BatchSize = c.Validation.BatchSize
	}
	if c.Validation.Workers > 0 {
		cfg.Workers = c.Validation.Workers
	}
	cfg.MaxRetries = c.Validation.MaxRetries
	if c.Validation.RetryIntervalMS > 0 {
		cfg.RetryInterval = time.Duration(c.Validation.RetryIntervalMS) * time.Millisecond
	}
	return cfg
}

// ValidatorTimeout returns the per-batch timeout for the external validator.
func (c *Config) ValidatorTimeout() time.Duration {
	if c.Validation.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Validation.TimeoutSeconds) * time.Second
}
