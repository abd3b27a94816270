// Package retrylimit retries flaky operations with exponential backoff.
//
// It is HTTP-aware without depending on a client: errors that expose a
// status code get classified, everything else is treated as transient.
//
//	err := retrylimit.WithRetry(ctx, 3, func() error {
//	    return fetchSomething()
//	})
package retrylimit

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

const (
	initialDelay = 500 * time.Millisecond
	maxDelay     = 10 * time.Second
)

// FatalError wraps errors that should stop retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// HTTPError is optionally implemented by errors that carry a status code.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a ready-made HTTPError for callers that only have a code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string   { return fmt.Sprintf("unexpected status %d", e.Code) }
func (e *StatusError) StatusCode() int { return e.Code }

// WithRetry runs fn up to maxAttempts times with exponential backoff and
// jitter. It stops early when fn succeeds, returns a FatalError, carries a
// non-retryable HTTP status, or the context ends.
func WithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		log.Printf("[Retry] Attempt %d failed: %v. Sleeping %v", attempt, lastErr, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(addJitter(delay)):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// retryable treats fatal errors and HTTP client errors (except 429) as
// permanent; everything else is worth another try.
func retryable(err error) bool {
	if _, ok := err.(*FatalError); ok {
		return false
	}
	if httpErr, ok := err.(HTTPError); ok {
		code := httpErr.StatusCode()
		if code == http.StatusTooManyRequests {
			return true
		}
		return code >= 500 && code < 600
	}
	return true
}

// addJitter spreads delays by up to 25% to avoid synchronized retries.
func addJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}
