// Package batch transcribes a recorded WAV file in one pass.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/segment"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

const (
	// DefaultChunkDuration is the piece length used without diarization
	DefaultChunkDuration = 30 * time.Second

	minSegmentSeconds = 0.5
)

// Options controls one file transcription.
type Options struct {
	Language      string
	Diarize       bool          // Label speaker turns instead of cutting fixed pieces
	ChunkDuration time.Duration // Piece length without diarization
}

// Transcriber runs a speech backend over whole files.
type Transcriber struct {
	backend   stt.Transcriber
	segmenter *segment.Segmenter
	logger    zerolog.Logger
}

// New creates a file transcriber. A nil segmenter selects the defaults.
func New(backend stt.Transcriber, segmenter *segment.Segmenter, logger zerolog.Logger) *Transcriber {
	if segmenter == nil {
		segmenter = segment.NewSegmenter(nil, nil)
	}
	return &Transcriber{
		backend:   backend,
		segmenter: segmenter,
		logger:    logger.With().Str("component", "batch").Logger(),
	}
}

// TranscribeFile returns the transcript of the WAV file at path. Without
// diarization the pieces are joined by spaces; with it every speaker turn
// is written as "LABEL: text" on its own line. Quiet pieces are skipped and
// the first backend error aborts the run.
func (t *Transcriber) TranscribeFile(ctx context.Context, path string, opts Options) (string, error) {
	if !stt.IsAvailable(t.backend) {
		return "", stt.ErrModelUnavailable
	}

	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}

	logger := t.logger.With().Str("file", path).Logger()
	logger.Info().
		Dur("duration", audio.SamplesDuration(len(samples), rate)).
		Bool("diarize", opts.Diarize).
		Msg("Transcribing file")

	if opts.Diarize {
		segments, err := t.segmenter.SpeakerTurnsFromFile(path)
		if err != nil {
			logger.Warn().Err(err).Msg("Segmentation failed, transcribing in fixed pieces")
		} else if len(segments) > 0 {
			return t.transcribeTurns(ctx, samples, rate, segments, opts.Language, logger)
		}
	}

	return t.transcribePieces(ctx, samples, rate, opts, logger)
}

func (t *Transcriber) transcribeTurns(ctx context.Context, samples []float32, rate int, segments []segment.Segment, language string, logger zerolog.Logger) (string, error) {
	var b strings.Builder
	for i, seg := range segments {
		if seg.Duration() < minSegmentSeconds {
			continue
		}
		from, to := seg.Bounds(rate, len(samples))

		text, err := t.transcribe(ctx, samples[from:to], rate, language)
		if err != nil {
			return "", fmt.Errorf("segment %.2f-%.2f: %w", seg.Start, seg.End, err)
		}
		if text != "" {
			fmt.Fprintf(&b, "%s: %s\n", seg.Speaker, text)
		}

		logger.Info().
			Str("speaker", seg.Speaker).
			Int("segment", i+1).
			Int("total", len(segments)).
			Msg("Segment transcribed")
	}
	return b.String(), nil
}

func (t *Transcriber) transcribePieces(ctx context.Context, samples []float32, rate int, opts Options, logger zerolog.Logger) (string, error) {
	duration := opts.ChunkDuration
	if duration <= 0 {
		duration = DefaultChunkDuration
	}
	size := int(duration.Seconds() * float64(rate))
	if size < 1 {
		size = 1
	}
	total := (len(samples) + size - 1) / size

	var texts []string
	for i := 0; i < total; i++ {
		from := i * size
		to := from + size
		if to > len(samples) {
			to = len(samples)
		}

		text, err := t.transcribe(ctx, samples[from:to], rate, opts.Language)
		if err != nil {
			return "", fmt.Errorf("piece %d/%d: %w", i+1, total, err)
		}
		if text != "" {
			texts = append(texts, text)
		}

		logger.Info().Int("piece", i+1).Int("total", total).Msg("Piece transcribed")
	}
	return strings.Join(texts, " "), nil
}

// transcribe returns "" for quiet audio without calling the backend.
func (t *Transcriber) transcribe(ctx context.Context, samples []float32, rate int, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	samples = audio.Resample(samples, rate, stt.SampleRate)
	if len(samples) == 0 || audio.Peak(samples) < audio.QuietPeak {
		return "", nil
	}

	text, err := t.backend.Transcribe(ctx, stt.Request{
		Samples:    audio.NormalizeToPeak(samples),
		SampleRate: stt.SampleRate,
		Language:   language,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
