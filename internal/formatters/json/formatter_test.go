// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	stdjson "encoding/json"
	"strings"
	"testing"

	"keysweep/internal/artifact"
	"keysweep/internal/formatters"
	"keysweep/internal/orchestrator"
)

func TestFormat_ProducesParseableRedactedReport(t *testing.T) {
	raw := "e9873d79c6d87dc0fb6a5778633389f4453213303da61f20bd67fc233aa33262"
	result := &orchestrator.Result{
		Phase: artifact.PhaseCompleted,
		Artifacts: []artifact.Artifact{{
			ID:         "ks-000001",
			Kind:       artifact.KindPrivateKey,
			Subtype:    artifact.SubtypeHexPrivateKey,
			RawValue:   raw,
			Source:     artifact.FileSystem{Path: "/a.txt", Offset: -1},
			Confidence: 60,
			State:      artifact.StateInvalid,
		}},
		Warnings: []artifact.Warning{{Path: "/b.txt", Message: "cannot read"}},
	}

	f := NewFormatter()
	out, err := f.Format(result, formatters.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(out, raw) {
		t.Error("JSON report leaks the raw value")
	}

	var parsed struct {
		Phase     string `json:"phase"`
		Artifacts []struct {
			ID      string `json:"id"`
			Kind    string `json:"kind"`
			Preview string `json:"preview"`
			Band    string `json:"band"`
			State   string `json:"state"`
		} `json:"artifacts"`
		Warnings []struct {
			Message string `json:"message"`
		} `json:"warnings"`
		Counts map[string]int `json:"counts"`
	}
	if err := stdjson.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if parsed.Phase != "Completed" {
		t.Errorf("phase = %q", parsed.Phase)
	}
	if len(parsed.Artifacts) != 1 {
		t.Fatalf("artifacts = %d", len(parsed.Artifacts))
	}
	a := parsed.Artifacts[0]
	if a.Kind != "PrivateKey" || a.State != "Invalid" || a.Band != "medium" {
		t.Errorf("artifact = %+v", a)
	}
	if !strings.HasPrefix(a.Preview, "e987") || !strings.Contains(a.Preview, "...") {
		t.Errorf("preview = %q", a.Preview)
	}
	if len(parsed.Warnings) != 1 || parsed.Warnings[0].Message != "cannot read" {
		t.Errorf("warnings = %+v", parsed.Warnings)
	}
	if parsed.Counts["Invalid"] != 1 {
		t.Errorf("counts = %v", parsed.Counts)
	}
}

func TestFormat_BandFilter(t *testing.T) {
	result := &orchestrator.Result{
		Phase: artifact.PhaseCompleted,
		Artifacts: []artifact.Artifact{
			{ID: "ks-000001", Confidence: 90, Source: artifact.DirectInput{}},
			{ID: "ks-000002", Confidence: 10, Source: artifact.DirectInput{}},
		},
	}

	f := NewFormatter()
	out, err := f.Format(result, formatters.Options{
		ConfidenceLevel: map[string]bool{"high": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "ks-000002") {
		t.Errorf("low-band artifact not filtered:\n%s", out)
	}
	if !strings.Contains(out, "ks-000001") {
		t.Errorf("high-band artifact missing:\n%s", out)
	}
}
