package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/live-transcriber/internal/config"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/resilience"
	"github.com/lexiqai/live-transcriber/internal/stt"
	"github.com/lexiqai/live-transcriber/internal/stt/assemblyai"
	"github.com/lexiqai/live-transcriber/internal/stt/deepgram"
	"github.com/lexiqai/live-transcriber/internal/stt/openai"
	"github.com/lexiqai/live-transcriber/internal/stt/whisper"
)

// speechBackend is the configured transcriber with its lifecycle and, for
// remote backends, the circuit breaker guarding it.
type speechBackend struct {
	transcriber stt.Transcriber
	closer      io.Closer
	breaker     *resilience.CircuitBreaker
}

// Close releases a locally loaded model.
func (b speechBackend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// readiness reports the backend as not ready when it failed to load or
// while its circuit is open.
func (b speechBackend) readiness() observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		if !stt.IsAvailable(b.transcriber) {
			return false, stt.ErrModelUnavailable
		}
		if b.breaker != nil && b.breaker.GetState() == resilience.StateOpen {
			_, requests, failures, _ := b.breaker.GetStats()
			return false, fmt.Errorf("%w: %d of %d requests failed", resilience.ErrCircuitOpen, failures, requests)
		}
		return true, nil
	}
}

// newBackend builds the configured backend. A backend that cannot be
// loaded is replaced by stt.Unavailable so the service still starts and
// every chunk gets the unavailable placeholder.
func newBackend(cfg *config.Config, logger zerolog.Logger) speechBackend {
	var (
		backend stt.Transcriber
		closer  io.Closer
		breaker *resilience.CircuitBreaker
		remote  = true
		err     error
	)

	switch cfg.STTBackend {
	case config.BackendWhisper:
		remote = false
		var w *whisper.Transcriber
		w, err = whisper.New(cfg.WhisperModelPath, logger)
		if err == nil {
			backend, closer = w, w
		}
	case config.BackendOpenAI:
		backend, err = openaiBackend(cfg)
	case config.BackendDeepgram:
		backend, err = deepgramBackend(cfg)
	case config.BackendAssemblyAI:
		backend, err = assemblyaiBackend(cfg)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.STTBackend)
	}

	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.STTBackend).Msg("Speech model unavailable")
		return speechBackend{transcriber: stt.Unavailable{Reason: err}}
	}

	if remote {
		breaker = resilience.NewCircuitBreaker(
			cfg.STTBackend,
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		)
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.RetryMaxAttempts
		retry.InitialBackoff = time.Duration(cfg.RetryInitialBackoff) * time.Millisecond
		backend = stt.NewGuard(backend, breaker, retry)
	}

	logger.Info().Str("backend", cfg.STTBackend).Bool("remote", remote).Msg("Speech backend ready")
	return speechBackend{
		transcriber: stt.NewInstrumented(backend, cfg.STTBackend),
		closer:      closer,
		breaker:     breaker,
	}
}

func openaiBackend(cfg *config.Config) (stt.Transcriber, error) {
	t, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func deepgramBackend(cfg *config.Config) (stt.Transcriber, error) {
	t, err := deepgram.New(cfg.DeepgramAPIKey, cfg.DeepgramModel)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func assemblyaiBackend(cfg *config.Config) (stt.Transcriber, error) {
	t, err := assemblyai.New(cfg.AssemblyAIAPIKey, "")
	if err != nil {
		return nil, err
	}
	return t, nil
}
