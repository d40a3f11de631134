// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"keysweep/internal/resilience"
)

// CommandValidator runs an external checker process per batch. The batch is
// written to the child's stdin as a JSON array of BatchItem and the child must
// print a JSON object mapping artifact ID to Verdict on stdout. The child
// never gets artifact values via argv, so they stay out of the process table.
type CommandValidator struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommandValidator parses a command line such as
// "keycheck --network mainnet" into a validator. Timeout bounds each batch
// invocation; zero means no bound beyond the caller's context.
func NewCommandValidator(command string, timeout time.Duration) (*CommandValidator, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("validator command is empty")
	}
	return &CommandValidator{name: fields[0], args: fields[1:], timeout: timeout}, nil
}

// ValidateBatch implements CryptoValidator.
func (v *CommandValidator) ValidateBatch(ctx context.Context, items []BatchItem) (map[string]Verdict, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	input, err := json.Marshal(items)
	if err != nil {
		return nil, resilience.NewPermanentError("encode validator batch", err)
	}

	cmd := exec.CommandContext(ctx, v.name, v.args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, resilience.NewPermanentError(fmt.Sprintf("validator %q not found", v.name), err)
		}
		if ctx.Err() != nil {
			return nil, resilience.NewTimeoutError("validator timed out", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		// Nonzero exit could be a transient fault (resource pressure, a
		// flaky child); let the retry policy decide.
		return nil, resilience.NewTransientError(fmt.Sprintf("validator failed: %s", msg), err)
	}

	var verdicts map[string]Verdict
	if err := json.Unmarshal(stdout.Bytes(), &verdicts); err != nil {
		return nil, resilience.NewPermanentError("decode validator output", err)
	}
	return verdicts, nil
}
