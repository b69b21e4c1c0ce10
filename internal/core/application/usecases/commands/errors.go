package commands

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrIdempotencyKeyReused is returned when a key already recorded for one
	// command arrives with a different command.
	ErrIdempotencyKeyReused = errors.New("idempotency key was already used for a different command")
)

// RateLimitedError carries the wait after which the same request could pass.
type RateLimitedError struct {
	Key        string
	RetryAfter time.Duration
}

func NewRateLimitedError(key string, retryAfter time.Duration) *RateLimitedError {
	return &RateLimitedError{Key: key, RetryAfter: retryAfter}
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s for %q, retry after %s", ErrRateLimited.Error(), e.Key, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
