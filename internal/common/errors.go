// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Request validation errors.
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCodeFormat = errors.New("invalid HTS code format")
	ErrCodeNotFound      = errors.New("HTS code not found")

	// Dataset errors.
	ErrInternalInconsistency = errors.New("tariff dataset inconsistency")
	ErrDatasetNotLoaded      = errors.New("tariff dataset not loaded")

	// Upstream errors.
	ErrUpstreamUnavailable = errors.New("upstream rate source unavailable")
	ErrOracleTimeout       = errors.New("inference oracle timed out")
	ErrOracleUnavailable   = errors.New("inference oracle unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
