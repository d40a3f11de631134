// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"
	"fmt"
	"time"

	"keysweep/internal/formatters"
	"keysweep/internal/orchestrator"
)

// Formatter implements JSON output formatting. Values are redacted previews,
// the same as the text formatter; the JSON report is safe to archive.
type Formatter struct{}

// NewFormatter creates a new JSON formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Machine-readable JSON report with redacted artifact previews"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

type report struct {
	Phase           string           `json:"phase"`
	Root            string           `json:"root,omitempty"`
	FilesScanned    int              `json:"filesScanned"`
	BytesProcessed  int64            `json:"bytesProcessed"`
	ElapsedMS       int64            `json:"elapsedMs"`
	Artifacts       []reportArtifact `json:"artifacts"`
	Warnings        []reportWarning  `json:"warnings,omitempty"`
	WarningsDropped int              `json:"warningsDropped,omitempty"`
	Counts          map[string]int   `json:"counts"`
}

type reportArtifact struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Subtype    string         `json:"subtype"`
	Preview    string         `json:"preview"`
	Source     string         `json:"source"`
	Confidence int            `json:"confidence"`
	Band       string         `json:"band"`
	State      string         `json:"state"`
	FoundAt    time.Time      `json:"foundAt"`
	Tags       []string       `json:"tags,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type reportWarning struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (f *Formatter) Format(result *orchestrator.Result, options formatters.Options) (string, error) {
	r := report{
		Phase:           result.Phase.String(),
		Root:            result.Root,
		FilesScanned:    result.FilesScanned,
		BytesProcessed:  result.BytesProcessed,
		ElapsedMS:       result.Elapsed.Milliseconds(),
		Artifacts:       []reportArtifact{},
		WarningsDropped: result.WarningsDropped,
		Counts:          make(map[string]int, 4),
	}

	for _, a := range result.Artifacts {
		band := formatters.ConfidenceBand(a.Confidence)
		if options.ConfidenceLevel != nil && !options.ConfidenceLevel[band] {
			continue
		}
		ra := reportArtifact{
			ID:         a.ID,
			Kind:       a.Kind.String(),
			Subtype:    a.Subtype,
			Preview:    a.Preview(),
			Source:     a.Source.Describe(),
			Confidence: a.Confidence,
			Band:       band,
			State:      a.State.String(),
			FoundAt:    a.CreatedAt,
			Tags:       a.Tags,
			Warnings:   a.Warnings,
		}
		if options.Verbose {
			ra.Metadata = a.Metadata
		}
		r.Artifacts = append(r.Artifacts, ra)
	}

	for _, a := range result.Artifacts {
		r.Counts[a.State.String()]++
	}
	for _, warning := range result.Warnings {
		r.Warnings = append(r.Warnings, reportWarning{Path: warning.Path, Message: warning.Message})
	}

	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(out), nil
}
