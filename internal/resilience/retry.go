package resilience

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts, including the first
	InitialBackoff    time.Duration // Initial backoff duration
	MaxBackoff        time.Duration // Maximum backoff duration
	BackoffMultiplier float64       // Multiplier for exponential backoff
	Jitter            bool          // Whether to randomize each backoff
}

// jitterFactor is the randomization applied to each backoff when Jitter is set
const jitterFactor = 0.25

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// IsRetryableError checks if an error is retryable
type IsRetryableError func(error) bool

// newBackOff builds the exponential policy described by config, bounded by
// its attempt count and by ctx.
func newBackOff(ctx context.Context, config *RetryConfig) backoff.BackOff {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = config.InitialBackoff
	if config.MaxBackoff > 0 {
		bo.MaxInterval = config.MaxBackoff
	}
	if config.BackoffMultiplier >= 1 {
		bo.Multiplier = config.BackoffMultiplier
	}
	bo.RandomizationFactor = 0
	if config.Jitter {
		bo.RandomizationFactor = jitterFactor
	}
	bo.MaxElapsedTime = 0 // bounded by attempts and ctx only

	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
}

// Retry executes fn until it succeeds, returns a non-retryable error,
// exhausts MaxAttempts, or ctx is done.
func Retry(ctx context.Context, fn RetryableFunc, config *RetryConfig, isRetryable IsRetryableError) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	operation := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, newBackOff(ctx, config))
	if err != nil && lastErr != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Report what the call failed with, not the cancellation that ended the wait
		return lastErr
	}
	return err
}

var retryableFragments = []string{
	// Connection errors
	"connection refused",
	"connection reset",
	"connection closed",
	"unexpected eof",
	"broken pipe",
	"unavailable",
	"network is unreachable",
	"no route to host",
	// Timeout errors
	"deadline exceeded",
	"timeout",
	// Throttling and transient server errors
	"resource exhausted",
	"too many requests",
	"rate limit",
	"429",
	"502",
	"503",
	"504",
}

// IsRetryableNetworkError checks if an error is a retryable network or
// throttling error.
func IsRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(errStr, fragment) {
			return true
		}
	}
	return false
}
