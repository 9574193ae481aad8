//go:build !whisper

// Package whisper runs transcription locally with whisper.cpp. This build
// was compiled without the whisper tag, so the model can never load.
package whisper

import (
	"context"
	"fmt"

	"github.com/lexiqai/live-transcriber/internal/stt"
	"github.com/rs/zerolog"
)

// Transcriber is unavailable in builds without the whisper tag.
type Transcriber struct{}

// New always fails with stt.ErrModelUnavailable.
func New(modelPath string, _ zerolog.Logger) (*Transcriber, error) {
	return nil, fmt.Errorf("%w: binary built without whisper support (rebuild with -tags whisper to load %q)", stt.ErrModelUnavailable, modelPath)
}

// Transcribe always fails with stt.ErrModelUnavailable.
func (t *Transcriber) Transcribe(context.Context, stt.Request) (string, error) {
	return "", stt.ErrModelUnavailable
}

// Close is a no-op.
func (t *Transcriber) Close() error {
	return nil
}
