// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validation drives Pending artifacts through an external crypto
// validator in batches and applies the verdicts to the store. Validation only
// moves lifecycle state; confidence scores are never revisited here.
package validation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"keysweep/internal/artifact"
	"keysweep/internal/observability"
	"keysweep/internal/resilience"
	"keysweep/internal/store"
)

// BatchItem is one artifact handed to the external validator.
type BatchItem struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	RawValue string `json:"rawValue"`
}

// Verdict is the validator's decision for one artifact.
type Verdict struct {
	IsValid  bool     `json:"isValid"`
	Warnings []string `json:"warnings,omitempty"`
}

// CryptoValidator checks a batch of artifacts and returns verdicts keyed by
// artifact ID. A returned error means the whole batch failed; per-item
// problems belong in the verdict warnings.
type CryptoValidator interface {
	ValidateBatch(ctx context.Context, items []BatchItem) (map[string]Verdict, error)
}

// BatchProgress reports completion of one batch.
type BatchProgress struct {
	BatchesDone    int
	BatchesTotal   int
	ItemsValidated int
	ItemsTotal     int
}

// Config sizes the coordinator's batching and retry behavior.
type Config struct {
	BatchSize     int
	Workers       int
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     25,
		Workers:       4,
		MaxRetries:    3,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Coordinator fans batches of Pending artifacts out to a small worker pool.
// The store serializes the actual state writes.
type Coordinator struct {
	store     *store.Store
	validator CryptoValidator
	observer  *observability.StandardObserver
	cfg       Config
}

// New creates a coordinator over the session store.
func New(st *store.Store, validator CryptoValidator, observer *observability.StandardObserver, cfg Config) *Coordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultConfig().RetryInterval
	}
	return &Coordinator{store: st, validator: validator, observer: observer, cfg: cfg}
}

// ValidateAll validates every Pending artifact. Each batch is retried with
// linear backoff; when retries are exhausted the whole batch moves to Error
// with the failure recorded as a warning, and remaining batches still run.
// Cancellation stops dispatching new batches; artifacts never validated stay
// Pending.
func (c *Coordinator) ValidateAll(ctx context.Context, progress func(BatchProgress)) error {
	pending := c.store.Pending()
	if len(pending) == 0 {
		return nil
	}

	var finish func(bool, map[string]any)
	if c.observer != nil {
		finish = c.observer.StartTiming("validation", "validate_all", fmt.Sprintf("%d pending", len(pending)))
	}

	batches := chunk(pending, c.cfg.BatchSize)
	jobs := make(chan []artifact.Artifact)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		done      int
		validated int
	)

	workers := min(c.cfg.Workers, len(batches))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				c.validateBatch(ctx, batch)
				mu.Lock()
				done++
				validated += len(batch)
				p := BatchProgress{
					BatchesDone:    done,
					BatchesTotal:   len(batches),
					ItemsValidated: validated,
					ItemsTotal:     len(pending),
				}
				mu.Unlock()
				if progress != nil {
					progress(p)
				}
			}
		}()
	}

dispatch:
	for _, batch := range batches {
		select {
		case jobs <- batch:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if finish != nil {
		finish(ctx.Err() == nil, map[string]any{
			"batches":   done,
			"validated": validated,
		})
	}
	return ctx.Err()
}

// validateBatch runs one batch through the validator with retries and applies
// the outcome to the store.
func (c *Coordinator) validateBatch(ctx context.Context, batch []artifact.Artifact) {
	items := make([]BatchItem, len(batch))
	for i, a := range batch {
		items[i] = BatchItem{ID: a.ID, Kind: a.Kind.String(), RawValue: a.RawValue}
	}

	cfg := resilience.ValidatorRetryConfig(c.cfg.MaxRetries, c.cfg.RetryInterval)
	cfg.OnRetry = func(attempt int, err error) {
		c.observer.Note("validation", fmt.Sprintf("batch retry %d: %v", attempt, err))
	}

	verdicts, err := resilience.RetryWithResult(ctx, cfg, func(ctx context.Context) (map[string]Verdict, error) {
		return c.validator.ValidateBatch(ctx, items)
	})
	if err != nil {
		// Exhausted retries: the batch is undecidable, not invalid.
		for _, a := range batch {
			c.setState(a.ID, artifact.StateError, []string{fmt.Sprintf("validation failed: %v", err)})
		}
		return
	}

	for _, a := range batch {
		v, ok := verdicts[a.ID]
		if !ok {
			c.setState(a.ID, artifact.StateError, []string{"validator returned no verdict"})
			continue
		}
		state := artifact.StateInvalid
		if v.IsValid {
			state = artifact.StateValid
		}
		c.setState(a.ID, state, v.Warnings)
	}
}

func (c *Coordinator) setState(id string, state artifact.State, warnings []string) {
	if err := c.store.SetState(id, state, warnings); err != nil {
		c.observer.Note("validation", fmt.Sprintf("state transition rejected: %v", err))
	}
}

func chunk(items []artifact.Artifact, size int) [][]artifact.Artifact {
	var out [][]artifact.Artifact
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
