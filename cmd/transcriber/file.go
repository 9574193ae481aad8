package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lexiqai/live-transcriber/internal/batch"
	"github.com/lexiqai/live-transcriber/internal/segment"
	"github.com/lexiqai/live-transcriber/internal/storage"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

// fileJob is one offline transcription requested on the command line.
type fileJob struct {
	Input    string
	Output   string
	Language string
	Diarize  bool
}

// runFile transcribes job.Input and writes the text to job.Output.
func runFile(ctx context.Context, transcriber stt.Transcriber, segmenter *segment.Segmenter, job fileJob, logger zerolog.Logger) error {
	text, err := batch.New(transcriber, segmenter, logger).TranscribeFile(ctx, job.Input, batch.Options{
		Language: job.Language,
		Diarize:  job.Diarize,
	})
	if err != nil {
		return err
	}

	sink := storage.FileSink{Dir: filepath.Dir(job.Output)}
	if err := sink.Save(ctx, filepath.Base(job.Output), text); err != nil {
		if errors.Is(err, storage.ErrEmptyTranscript) {
			return fmt.Errorf("no speech recognized in %s", job.Input)
		}
		return fmt.Errorf("failed to write %s: %w", job.Output, err)
	}

	logger.Info().Str("input", job.Input).Str("output", job.Output).Msg("File transcription saved")
	return nil
}
