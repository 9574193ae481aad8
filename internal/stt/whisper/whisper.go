//go:build whisper

// Package whisper runs transcription locally with whisper.cpp. Building it
// requires libwhisper.a and whisper.h on LIBRARY_PATH and C_INCLUDE_PATH.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/lexiqai/live-transcriber/internal/stt"
	"github.com/rs/zerolog"
)

// Transcriber wraps a loaded whisper.cpp model.
type Transcriber struct {
	model  whisperlib.Model
	logger zerolog.Logger
	mu     sync.Mutex
}

// New loads the model at modelPath. Load failures wrap stt.ErrModelUnavailable.
func New(modelPath string, logger zerolog.Logger) (*Transcriber, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: model path must not be empty", stt.ErrModelUnavailable)
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load model %q: %v", stt.ErrModelUnavailable, modelPath, err)
	}

	return &Transcriber{
		model:  model,
		logger: logger.With().Str("component", "whisper").Logger(),
	}, nil
}

// Transcribe runs inference on a fresh context. The call is not
// interruptible once started.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.SampleRate != stt.SampleRate {
		return "", fmt.Errorf("whisper requires %d Hz audio, got %d", stt.SampleRate, req.SampleRate)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	if req.Language != "" {
		if err := wctx.SetLanguage(req.Language); err != nil {
			t.logger.Warn().Err(err).Str("language", req.Language).Msg("Failed to set language, using auto-detect")
		}
	}

	if err := wctx.Process(req.Samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// Close releases the model.
func (t *Transcriber) Close() error {
	return t.model.Close()
}
