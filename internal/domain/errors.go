package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPayload       = errors.New("payload must not be empty")
	ErrInvalidPayload     = errors.New("payload is not valid JSON")
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")
	ErrRequeueRequested   = errors.New("requeue requested by payload")
)

type (
	MaxRetriesExceededError struct {
		Pattern    string
		RetryCount int
		MaxRetries int
		Cause      error
	}
)

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("max retries exceeded for pattern %s: %d/%d: %v", e.Pattern, e.RetryCount, e.MaxRetries, e.Cause)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.Cause
}
