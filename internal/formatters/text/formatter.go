// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"keysweep/internal/artifact"
	"keysweep/internal/formatters"
	"keysweep/internal/orchestrator"
)

// Formatter implements text-based output formatting.
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter.
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors, grouped by confidence"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(result *orchestrator.Result, options formatters.Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	var builder strings.Builder

	grouped := f.groupByBand(result.Artifacts, options)
	total := 0
	for _, band := range []string{"high", "medium", "low"} {
		total += len(grouped[band])
	}

	if total == 0 {
		builder.WriteString("No key material found.\n")
	}

	for _, band := range []string{"high", "medium", "low"} {
		artifacts := grouped[band]
		if len(artifacts) == 0 {
			continue
		}
		f.appendBandHeader(&builder, band, len(artifacts))
		for _, a := range artifacts {
			f.appendArtifact(&builder, a, options)
		}
		builder.WriteString("\n")
	}

	f.appendSummary(&builder, result)
	return builder.String(), nil
}

// groupByBand buckets the artifacts into confidence bands, each sorted by
// descending confidence with discovery order as the tiebreak.
func (f *Formatter) groupByBand(artifacts []artifact.Artifact, options formatters.Options) map[string][]artifact.Artifact {
	grouped := make(map[string][]artifact.Artifact, 3)
	for _, a := range artifacts {
		band := formatters.ConfidenceBand(a.Confidence)
		if options.ConfidenceLevel != nil && !options.ConfidenceLevel[band] {
			continue
		}
		grouped[band] = append(grouped[band], a)
	}
	for band := range grouped {
		sort.SliceStable(grouped[band], func(i, j int) bool {
			return grouped[band][i].Confidence > grouped[band][j].Confidence
		})
	}
	return grouped
}

func (f *Formatter) appendBandHeader(builder *strings.Builder, band string, count int) {
	c := f.colors["green"]
	switch band {
	case "high":
		c = f.colors["red"]
	case "medium":
		c = f.colors["yellow"]
	}
	builder.WriteString(c.Sprintf("=== %s CONFIDENCE (%d) ===\n", strings.ToUpper(band), count))
}

func (f *Formatter) appendArtifact(builder *strings.Builder, a artifact.Artifact, options formatters.Options) {
	state := f.colors["cyan"]
	switch a.State {
	case artifact.StateValid:
		state = f.colors["green"]
	case artifact.StateInvalid, artifact.StateError:
		state = f.colors["red"]
	}

	builder.WriteString(fmt.Sprintf("  [%3d] %-28s %s  %s\n",
		a.Confidence, a.Subtype, state.Sprintf("%-8s", a.State.String()), a.Preview()))
	builder.WriteString(fmt.Sprintf("        source: %s\n", a.Source.Describe()))

	if options.Verbose {
		if len(a.Tags) > 0 {
			builder.WriteString(fmt.Sprintf("        tags: %s\n", strings.Join(a.Tags, ", ")))
		}
		for _, warning := range a.Warnings {
			builder.WriteString(f.colors["yellow"].Sprintf("        warning: %s\n", warning))
		}
	}
}

func (f *Formatter) appendSummary(builder *strings.Builder, result *orchestrator.Result) {
	states := make(map[artifact.State]int, 4)
	for _, a := range result.Artifacts {
		states[a.State]++
	}

	builder.WriteString(f.colors["white"].Sprint("Summary:\n"))
	builder.WriteString(fmt.Sprintf("  Phase:      %s\n", result.Phase))
	builder.WriteString(fmt.Sprintf("  Files:      %d scanned (%d bytes)\n", result.FilesScanned, result.BytesProcessed))
	builder.WriteString(fmt.Sprintf("  Artifacts:  %d found", len(result.Artifacts)))
	if len(result.Artifacts) > 0 {
		builder.WriteString(fmt.Sprintf(" (%d valid, %d invalid, %d error, %d pending)",
			states[artifact.StateValid], states[artifact.StateInvalid],
			states[artifact.StateError], states[artifact.StatePending]))
	}
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("  Elapsed:    %s\n", result.Elapsed.Round(time.Millisecond)))

	if len(result.Warnings) > 0 {
		builder.WriteString(f.colors["yellow"].Sprintf("  Warnings:   %d\n", len(result.Warnings)+result.WarningsDropped))
		for _, warning := range result.Warnings {
			builder.WriteString(fmt.Sprintf("    - %s\n", warning))
		}
		if result.WarningsDropped > 0 {
			builder.WriteString(fmt.Sprintf("    ... and %d more\n", result.WarningsDropped))
		}
	}
}
