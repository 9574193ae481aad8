package stt

import (
	"context"
	"errors"

	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/resilience"
)

// Guard protects a remote backend with a circuit breaker and retries on
// transient network errors.
type Guard struct {
	next    Transcriber
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

// NewGuard wraps next. A nil retry config selects the defaults.
func NewGuard(next Transcriber, breaker *resilience.CircuitBreaker, retry *resilience.RetryConfig) *Guard {
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}

	breaker.OnStateChange(func(name string, _, to resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
	})

	return &Guard{next: next, breaker: breaker, retry: retry}
}

// Transcribe forwards to the wrapped backend.
func (g *Guard) Transcribe(ctx context.Context, req Request) (string, error) {
	var text string

	err := resilience.Retry(ctx, func(ctx context.Context) error {
		return g.breaker.Call(func() error {
			var err error
			text, err = g.next.Transcribe(ctx, req)
			if err != nil {
				observability.IncrementCircuitBreakerFailures(g.breaker.Name())
			}
			return err
		})
	}, g.retry, func(err error) bool {
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, ErrModelUnavailable) {
			return false
		}
		return resilience.IsRetryableNetworkError(err)
	})

	return text, err
}
