// Package stt defines the speech-to-text backend contract and the
// decorators shared by every backend.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when the configured backend could not be
// loaded or reached.
var ErrModelUnavailable = errors.New("speech model unavailable")

// SampleRate is the rate audio is resampled to before it reaches a backend.
const SampleRate = 16000

// Request is one unit of audio to transcribe.
type Request struct {
	Samples    []float32 // Mono, normalized to [-1, 1]
	SampleRate int
	Language   string // ISO 639-1 code, e.g. "fi"
}

// Transcriber turns audio into text. Implementations must be safe for
// sequential use from a single worker goroutine.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Unavailable stands in for a backend that failed to load.
type Unavailable struct {
	Reason error
}

// Transcribe always fails with ErrModelUnavailable.
func (u Unavailable) Transcribe(context.Context, Request) (string, error) {
	if u.Reason == nil {
		return "", ErrModelUnavailable
	}
	return "", fmt.Errorf("%w: %v", ErrModelUnavailable, u.Reason)
}

// IsAvailable reports whether t is a usable backend.
func IsAvailable(t Transcriber) bool {
	switch t.(type) {
	case nil, Unavailable, *Unavailable:
		return false
	}
	return true
}
