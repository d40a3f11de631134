// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package formatters renders a finished scan result for output. Every
// formatter works from redacted previews; raw artifact values never reach a
// report.
package formatters

import (
	"fmt"
	"strings"

	"keysweep/internal/orchestrator"
)

// Options defines configuration options for formatters.
type Options struct {
	ConfidenceLevel map[string]bool // which confidence bands to display
	Verbose         bool            // whether to display per-artifact detail
	NoColor         bool            // whether to disable colored output
}

// Formatter is one output format for a scan result.
type Formatter interface {
	// Format renders the result according to the formatter's output format.
	Format(result *orchestrator.Result, options Options) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text").
	Name() string

	// Description returns a brief description of what this formatter outputs.
	Description() string

	// FileExtension returns the recommended file extension for this format.
	FileExtension() string
}

// Registry holds all registered formatters.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns all registered formatter names.
func (r *Registry) List() []string {
	var names []string
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

// ParseConfidenceLevels converts a comma-separated list such as "high,medium"
// into the option map. An empty input enables every band.
func ParseConfidenceLevels(levels string) (map[string]bool, error) {
	enabled := map[string]bool{"high": false, "medium": false, "low": false}
	if strings.TrimSpace(levels) == "" {
		return map[string]bool{"high": true, "medium": true, "low": true}, nil
	}
	for _, level := range strings.Split(levels, ",") {
		level = strings.ToLower(strings.TrimSpace(level))
		if _, ok := enabled[level]; !ok {
			return nil, fmt.Errorf("unknown confidence level %q", level)
		}
		enabled[level] = true
	}
	return enabled, nil
}

// ConfidenceBand maps a numeric confidence score onto its display band.
func ConfidenceBand(confidence int) string {
	switch {
	case confidence >= 70:
		return "high"
	case confidence >= 40:
		return "medium"
	default:
		return "low"
	}
}
