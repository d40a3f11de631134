// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package store is the single-owner in-memory registry of discovered
// artifacts. The orchestrator inserts through the session deduplicator; the
// validation coordinator is the only mutator of lifecycle state. All access
// is serialized behind one mutex.
package store

import (
	"fmt"
	"sync"
	"time"

	"keysweep/internal/artifact"
	"keysweep/internal/scanner"
	"keysweep/internal/security"
)

// Store owns Artifact lifetime for one scan session.
type Store struct {
	mu     sync.Mutex
	byID   map[string]*artifact.Artifact
	order  []string
	dedupe *Deduplicator
	nextID uint64
	clock  func() time.Time
}

// New creates an empty session store.
func New() *Store {
	return &Store{
		byID:   make(map[string]*artifact.Artifact),
		dedupe: NewDeduplicator(),
		clock:  time.Now,
	}
}

// Insert registers a raw candidate. Duplicates within the session are dropped
// and reported with accepted=false; this is not an error. The returned
// Artifact is a snapshot copy.
func (s *Store) Insert(raw scanner.RawArtifact) (artifact.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dedupe.Insert(raw.Kind, raw.Subtype, raw.Value, raw.Source) {
		return artifact.Artifact{}, false
	}

	s.nextID++
	now := s.clock()
	a := &artifact.Artifact{
		ID:          fmt.Sprintf("ks-%06d", s.nextID),
		Kind:        raw.Kind,
		Subtype:     raw.Subtype,
		RawValue:    raw.Value,
		SecureValue: security.NewSecureString(raw.Value),
		Source:      raw.Source,
		Confidence:  raw.Confidence,
		State:       artifact.StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        append([]string(nil), raw.Tags...),
		Metadata:    raw.Metadata,
	}
	s.byID[a.ID] = a
	s.order = append(s.order, a.ID)
	return *a, true
}

// SetState performs a lifecycle transition. Only Pending artifacts may move,
// and only to a terminal state; anything else is a programming error surfaced
// to the caller. Confidence is never touched by validation.
func (s *Store) SetState(id string, state artifact.State, warnings []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("unknown artifact %q", id)
	}
	if a.State != artifact.StatePending {
		return fmt.Errorf("artifact %s is already %s, cannot transition to %s", id, a.State, state)
	}
	if state == artifact.StatePending {
		return fmt.Errorf("artifact %s cannot transition back to Pending", id)
	}

	a.State = state
	a.UpdatedAt = s.clock()
	a.Warnings = append(a.Warnings, warnings...)
	return nil
}

// Get returns a snapshot copy of one artifact.
func (s *Store) Get(id string) (artifact.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return artifact.Artifact{}, false
	}
	return *a, true
}

// Snapshot returns copies of all artifacts in discovery order.
func (s *Store) Snapshot() []artifact.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]artifact.Artifact, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Pending returns copies of artifacts still awaiting validation, in discovery
// order.
func (s *Store) Pending() []artifact.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []artifact.Artifact
	for _, id := range s.order {
		if a := s.byID[id]; a.State == artifact.StatePending {
			out = append(out, *a)
		}
	}
	return out
}

// Counts returns the number of artifacts in each lifecycle state.
func (s *Store) Counts() map[artifact.State]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[artifact.State]int, 4)
	for _, a := range s.byID {
		counts[a.State]++
	}
	return counts
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Clear scrubs every artifact's sensitive value and releases the session.
// The store is empty and reusable afterwards.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		a.Clear()
	}
	s.byID = make(map[string]*artifact.Artifact)
	s.order = nil
	s.dedupe = NewDeduplicator()
}
