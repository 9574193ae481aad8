package stt

import (
	"context"
	"time"

	"github.com/lexiqai/live-transcriber/internal/observability"
)

// Instrumented records request latency and success per backend.
type Instrumented struct {
	next    Transcriber
	backend string
}

// NewInstrumented wraps next, labelling metrics with backend.
func NewInstrumented(next Transcriber, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

// Transcribe forwards to the wrapped backend.
func (i *Instrumented) Transcribe(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := i.next.Transcribe(ctx, req)
	observability.RecordSTTRequest(i.backend, time.Since(start), err == nil)
	return text, err
}
