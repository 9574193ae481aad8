package stt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lexiqai/live-transcriber/internal/resilience"
)

type scriptedBackend struct {
	calls   int
	results []error
	text    string
}

func (s *scriptedBackend) Transcribe(ctx context.Context, req Request) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.results) && s.results[i] != nil {
		return "", s.results[i]
	}
	return s.text, nil
}

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{Reason: errors.New("model file missing")}.Transcribe(context.Background(), Request{})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}

	_, err = Unavailable{}.Transcribe(context.Background(), Request{})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable without reason, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	if IsAvailable(nil) {
		t.Error("Expected nil to be unavailable")
	}
	if IsAvailable(Unavailable{}) || IsAvailable(&Unavailable{}) {
		t.Error("Expected Unavailable to be unavailable")
	}
	if !IsAvailable(&scriptedBackend{}) {
		t.Error("Expected backend to be available")
	}
}

func TestGuard_RetriesTransientErrors(t *testing.T) {
	backend := &scriptedBackend{
		results: []error{errors.New("connection reset by peer"), nil},
		text:    "hyvää huomenta",
	}
	g := NewGuard(backend, resilience.NewCircuitBreaker("test", 5, time.Second), fastRetry())

	text, err := g.Transcribe(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if text != "hyvää huomenta" {
		t.Errorf("Expected transcript, got %q", text)
	}
	if backend.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", backend.calls)
	}
}

func TestGuard_DoesNotRetryPermanentErrors(t *testing.T) {
	backend := &scriptedBackend{results: []error{errors.New("invalid api key")}}
	g := NewGuard(backend, resilience.NewCircuitBreaker("test", 5, time.Second), fastRetry())

	if _, err := g.Transcribe(context.Background(), Request{}); err == nil {
		t.Error("Expected error")
	}
	if backend.calls != 1 {
		t.Errorf("Expected 1 call, got %d", backend.calls)
	}
}

func TestGuard_OpensCircuit(t *testing.T) {
	timeout := errors.New("i/o timeout")
	backend := &scriptedBackend{results: []error{timeout, timeout, timeout, timeout}}
	g := NewGuard(backend, resilience.NewCircuitBreaker("test", 2, time.Minute), fastRetry())

	_, err := g.Transcribe(context.Background(), Request{})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen once the breaker trips, got %v", err)
	}
	if backend.calls != 2 {
		t.Errorf("Expected breaker to stop calls after 2 failures, got %d", backend.calls)
	}

	// Subsequent requests fail fast
	_, err = g.Transcribe(context.Background(), Request{})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if backend.calls != 2 {
		t.Errorf("Expected no further backend calls, got %d", backend.calls)
	}
}

func TestInstrumented_PassesThrough(t *testing.T) {
	backend := &scriptedBackend{text: "moi"}
	i := NewInstrumented(backend, "test")

	text, err := i.Transcribe(context.Background(), Request{})
	if err != nil || text != "moi" {
		t.Errorf("Expected 'moi', got %q (%v)", text, err)
	}
}
