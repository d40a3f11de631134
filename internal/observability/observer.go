// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability provides lightweight operational metrics for scan and
// validation components. Records never contain raw match values.
package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Level controls how much operational data is emitted.
type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// StandardObserver implements observability for all components.
type StandardObserver struct {
	level  Level
	mu     sync.Mutex
	writer io.Writer
}

// NewStandardObserver creates an observer writing JSON records to w.
func NewStandardObserver(level Level, w io.Writer) *StandardObserver {
	return &StandardObserver{level: level, writer: w}
}

// Record is one operation log entry.
type Record struct {
	Component  string         `json:"component"`
	Operation  string         `json:"operation"`
	Path       string         `json:"path,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	MatchCount int            `json:"match_count,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StartTiming returns a completion function that logs the operation with its
// duration once invoked.
func (o *StandardObserver) StartTiming(component, operation, path string) func(success bool, metadata map[string]any) {
	start := time.Now()

	return func(success bool, metadata map[string]any) {
		o.Log(Record{
			Component:  component,
			Operation:  operation,
			Path:       path,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// Log writes one record. Records are only serialized in debug mode; metrics
// mode keeps the plumbing active without output noise.
func (o *StandardObserver) Log(rec Record) {
	if o == nil || o.level < LevelDebug || o.writer == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = json.NewEncoder(o.writer).Encode(rec)
}

// Note logs a one-off debug message for a component. Safe on a nil observer.
func (o *StandardObserver) Note(component, message string) {
	o.Log(Record{
		Component: component,
		Operation: "note",
		Success:   true,
		Metadata:  map[string]any{"message": message},
	})
}

// Debug reports whether debug-level records are being emitted.
func (o *StandardObserver) Debug() bool {
	return o != nil && o.level >= LevelDebug
}
