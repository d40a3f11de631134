// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"
)

func TestRetryWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryConfig{MaxRetries: 3}, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_RetriesOnTransientError(t *testing.T) {
	calls := 0
	transient := NewTransientError("temporary failure", nil)

	err := RetryWithBackoff(context.Background(), RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Multiplier:      2.0,
	}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := NewPermanentError("permanent failure", nil)

	err := RetryWithBackoff(context.Background(), RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		Multiplier:      2.0,
	}, func(ctx context.Context) error {
		calls++
		return permanent
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retries on permanent error), got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	calls := 0
	transient := NewTransientError("always fails", nil)

	err := RetryWithBackoff(context.Background(), RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Multiplier:      2.0,
	}, func(ctx context.Context) error {
		calls++
		return transient
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 4 { // initial + 3 retries
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := RetryWithBackoff(ctx, RetryConfig{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      1.0,
		OnRetry: func(attempt int, err error) {
			cancel()
		},
	}, func(ctx context.Context) error {
		calls++
		return NewTransientError("fail", nil)
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if calls > 3 {
		t.Errorf("expected few calls before cancellation, got %d", calls)
	}
}

func TestRetryWithBackoff_LinearBackoffKeepsConstantDelay(t *testing.T) {
	delays := []time.Duration{}
	transient := NewTransientError("fail", nil)
	lastTime := time.Now()

	RetryWithBackoff(context.Background(), ValidatorRetryConfig(3, 10*time.Millisecond), func(ctx context.Context) error {
		now := time.Now()
		delays = append(delays, now.Sub(lastTime))
		lastTime = now
		return transient
	})

	if len(delays) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(delays))
	}
	// Delays between retries stay near the configured interval; generous
	// upper bound to tolerate scheduler noise.
	for i := 1; i < len(delays); i++ {
		if delays[i] < 10*time.Millisecond || delays[i] > 200*time.Millisecond {
			t.Errorf("retry delay %d = %v, want roughly the fixed interval", i, delays[i])
		}
	}
}

func TestValidatorRetryConfig(t *testing.T) {
	cfg := ValidatorRetryConfig(3, 500*time.Millisecond)
	if cfg.Multiplier != 1.0 {
		t.Errorf("Multiplier = %v, want 1.0 for linear backoff", cfg.Multiplier)
	}
	if cfg.Jitter {
		t.Error("validator retries should not jitter")
	}
	if cfg.MaxRetries != 3 || cfg.InitialInterval != 500*time.Millisecond {
		t.Errorf("config = %+v", cfg)
	}
}

func TestRetryWithResult(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		Multiplier:      1.0,
	}, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, NewTransientError("fail", nil)
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout, true},
		{"canceled", context.Canceled, ErrorTypePermanent, false},
		{"permission", fs.ErrPermission, ErrorTypePermanent, false},
		{"not exist", fs.ErrNotExist, ErrorTypePermanent, false},
		{"resource exhaustion", errors.New("resource temporarily unavailable"), ErrorTypeTransient, true},
		{"missing binary", errors.New("exec: \"x\": executable file not found in $PATH"), ErrorTypePermanent, false},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("type = %v, want %v", got.Type, tt.wantType)
			}
			if got.IsRetryable() != tt.retryable {
				t.Errorf("retryable = %v, want %v", got.IsRetryable(), tt.retryable)
			}
		})
	}
}

func TestClassifyError_PassesThroughClassified(t *testing.T) {
	orig := NewTimeoutError("timed out", context.DeadlineExceeded)
	if got := ClassifyError(orig); got != orig {
		t.Error("already classified error was re-wrapped")
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	cause := fs.ErrPermission
	err := NewPermanentError("filesystem error", cause)
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is does not see the cause")
	}
}
