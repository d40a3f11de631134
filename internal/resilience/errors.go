// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
)

// ErrorType represents different classes of faults for handling strategies.
type ErrorType int

const (
	ErrorTypeUnknown   ErrorType = iota
	ErrorTypeTransient           // temporary faults worth retrying
	ErrorTypePermanent           // malformed input, missing binaries, permissions
	ErrorTypeTimeout             // deadline exceeded on a bounded operation
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknown:
		return "Unknown"
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypePermanent:
		return "Permanent"
	case ErrorTypeTimeout:
		return "Timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

// ClassifiedError wraps an error with type information.
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried.
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// NewTransientError creates a retryable classified error.
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Type: ErrorTypeTransient, Message: message, Retryable: true}
}

// NewPermanentError creates a non-retryable classified error.
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Type: ErrorTypePermanent, Message: message, Retryable: false}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Type: ErrorTypeTimeout, Message: message, Retryable: true}
}

// ClassifyError categorizes an error for appropriate handling. Already
// classified errors pass through unchanged.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(fmt.Sprintf("operation timed out: %v", err), err)

	case errors.Is(err, context.Canceled):
		return &ClassifiedError{Original: err, Type: ErrorTypePermanent, Message: err.Error(), Retryable: false}

	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		return NewPermanentError(fmt.Sprintf("filesystem error: %v", err), err)

	case isTimeoutError(err):
		return NewTimeoutError(fmt.Sprintf("timeout: %v", err), err)

	case isNetworkError(err):
		return NewTransientError(fmt.Sprintf("network error: %v", err), err)
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "resource temporarily unavailable"),
		strings.Contains(errStr, "too many open files"),
		strings.Contains(errStr, "interrupted system call"):
		return NewTransientError(err.Error(), err)

	case strings.Contains(errStr, "executable file not found"),
		strings.Contains(errStr, "permission denied"),
		strings.Contains(errStr, "invalid argument"):
		return NewPermanentError(err.Error(), err)
	}

	// Unknown faults default to a single retry being worthwhile.
	return &ClassifiedError{Original: err, Type: ErrorTypeUnknown, Message: err.Error(), Retryable: true}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTimeoutError(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return os.IsTimeout(err)
}
