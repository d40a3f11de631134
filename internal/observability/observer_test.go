// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStartTiming_EmitsRecordInDebugMode(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(LevelDebug, &buf)

	finish := o.StartTiming("scanner", "scan_bytes", "/tmp/a.bin")
	finish(true, map[string]any{"match_count": 2})

	var rec Record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if rec.Component != "scanner" || rec.Operation != "scan_bytes" || !rec.Success {
		t.Errorf("record = %+v", rec)
	}
}

func TestLog_SilentBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(LevelMetrics, &buf)
	o.Log(Record{Component: "x", Operation: "y"})
	if buf.Len() != 0 {
		t.Errorf("metrics level wrote output: %q", buf.String())
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *StandardObserver
	o.Log(Record{})
	o.Note("x", "y")
	if o.Debug() {
		t.Error("nil observer claims debug mode")
	}
}

func TestNote_CarriesMessage(t *testing.T) {
	var buf bytes.Buffer
	o := NewStandardObserver(LevelDebug, &buf)
	o.Note("validation", "batch retry 1")
	if !strings.Contains(buf.String(), "batch retry 1") {
		t.Errorf("note output = %q", buf.String())
	}
}
