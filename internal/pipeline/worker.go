// Package pipeline turns queued audio chunks into ordered transcription
// results on a single background goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/queue"
	"github.com/lexiqai/live-transcriber/internal/segment"
	"github.com/lexiqai/live-transcriber/internal/stt"
	"github.com/rs/zerolog"
)

// Placeholder texts delivered in place of a transcript.
const (
	TextUnavailable = "Transcription unavailable: the speech model is not loaded."
	TextEmpty       = "Empty audio input"
	TextTooQuiet    = "Audio level too low. Speak louder or check the microphone."
	TextNoSpeech    = "No recognizable speech. Speak louder or check the microphone."
)

// minSegmentSeconds is the shortest diarized segment worth a model call.
const minSegmentSeconds = 0.5

// Settings exposes the per-chunk session options the worker reads.
type Settings interface {
	Language() string
	DiarizationEnabled() bool
}

// Result is the transcription of one chunk.
type Result struct {
	Chunk   audio.Chunk
	Text    string
	Outcome string
	Latency time.Duration
}

// Config holds worker settings
type Config struct {
	SampleRate     int           // Rate the backend expects; chunks are resampled to it
	PollInterval   time.Duration // Input queue poll
	StopTimeout    time.Duration // Bounded join on Stop
	RequestTimeout time.Duration // Per backend call
}

// Worker transcribes chunks strictly in arrival order.
type Worker struct {
	transcriber stt.Transcriber
	available   bool
	segmenter   *segment.Segmenter
	settings    Settings
	config      Config
	logger      zerolog.Logger

	input   *queue.Queue[audio.Chunk]
	results *queue.Queue[Result]

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewWorker creates a worker. Pass stt.Unavailable when the backend failed
// to load; every chunk then yields TextUnavailable.
func NewWorker(transcriber stt.Transcriber, segmenter *segment.Segmenter, settings Settings, config Config, logger zerolog.Logger) *Worker {
	if config.SampleRate <= 0 {
		config.SampleRate = 16000
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = time.Second
	}
	if segmenter == nil {
		segmenter = segment.NewSegmenter(nil, nil)
	}

	return &Worker{
		transcriber: transcriber,
		available:   stt.IsAvailable(transcriber),
		segmenter:   segmenter,
		settings:    settings,
		config:      config,
		logger:      logger.With().Str("component", "worker").Logger(),
		input:       queue.New[audio.Chunk](),
		results:     queue.New[Result](),
	}
}

// Results returns the queue completed results are published to.
func (w *Worker) Results() *queue.Queue[Result] {
	return w.results
}

// QueueDepth returns the number of chunks waiting to be transcribed.
func (w *Worker) QueueDepth() int {
	return w.input.Len()
}

// Enqueue schedules a chunk. Chunks whose file no longer exists are dropped.
func (w *Worker) Enqueue(chunk audio.Chunk) bool {
	if _, err := os.Stat(chunk.Path); err != nil {
		w.logger.Warn().Err(err).Int("chunk", chunk.Index).Msg("Chunk file missing, dropping")
		return false
	}

	w.input.Put(chunk)
	observability.SetQueueDepth(w.input.Len())
	return true
}

// Start launches the worker goroutine. It is a no-op if already running.
// If a previous loop outlived its Stop, Start waits for it to finish its
// chunk first so two chunks are never transcribed at once.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	if w.done != nil {
		select {
		case <-w.done:
		default:
			w.logger.Warn().Msg("Waiting for previous transcription loop to exit")
			<-w.done
		}
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	go w.run(w.stop, w.done)
	w.logger.Info().Bool("backend_available", w.available).Msg("Transcription worker started")
}

// Stop signals the worker to exit after the current chunk and waits a
// bounded time for it.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stop)

	select {
	case <-w.done:
		w.logger.Info().Msg("Transcription worker stopped")
	case <-time.After(w.config.StopTimeout):
		w.logger.Warn().
			Dur("timeout", w.config.StopTimeout).
			Int("unfinished", w.input.Unfinished()).
			Msg("Transcription worker did not stop in time")
	}
}

func (w *Worker) run(stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		chunk, ok := w.input.Get(w.config.PollInterval)
		if !ok {
			continue
		}
		observability.SetQueueDepth(w.input.Len())

		result := w.process(chunk)
		observability.RecordChunkResult(result.Outcome, result.Latency)

		w.results.Put(result)
		w.input.TaskDone()
	}
}

// process transcribes one chunk, never failing: errors become result text.
func (w *Worker) process(chunk audio.Chunk) Result {
	start := time.Now()
	logger := w.logger.With().Int("chunk", chunk.Index).Logger()

	samples, rate, err := audio.ReadWAV(chunk.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load chunk")
		return Result{
			Chunk:   chunk,
			Text:    fmt.Sprintf("Error: %v", err),
			Outcome: observability.OutcomeError,
			Latency: time.Since(start),
		}
	}
	if rate != w.config.SampleRate {
		logger.Debug().Int("from", rate).Int("to", w.config.SampleRate).Msg("Resampling chunk")
		samples = audio.Resample(samples, rate, w.config.SampleRate)
	}
	logger.Debug().
		Float64("rms", audio.CalculateRMS(samples)).
		Float32("peak", audio.Peak(samples)).
		Msg("Chunk level")

	text, outcome := w.transcribeChunk(samples, logger)

	logger.Debug().Str("outcome", outcome).Dur("latency", time.Since(start)).Msg("Chunk transcribed")

	return Result{
		Chunk:   chunk,
		Text:    text,
		Outcome: outcome,
		Latency: time.Since(start),
	}
}

func (w *Worker) transcribeChunk(samples []float32, logger zerolog.Logger) (string, string) {
	if !w.settings.DiarizationEnabled() {
		return w.transcribe(samples)
	}

	segments, err := w.segmenter.SpeakerTurns(samples, w.config.SampleRate)
	if err != nil {
		logger.Warn().Err(err).Msg("Segmentation failed, transcribing whole chunk")
		return w.transcribe(samples)
	}
	observability.RecordSegments(len(segments))
	if len(segments) == 0 {
		return w.transcribe(samples)
	}

	var b strings.Builder
	outcome := observability.OutcomeEmpty
	for _, seg := range segments {
		if seg.Duration() < minSegmentSeconds {
			continue
		}
		from, to := seg.Bounds(w.config.SampleRate, len(samples))

		text, segOutcome := w.transcribe(samples[from:to])
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n\n", seg.Speaker, text)

		if segOutcome == observability.OutcomeSuccess || outcome == observability.OutcomeEmpty {
			outcome = segOutcome
		}
	}

	return b.String(), outcome
}

// transcribe runs one unit of audio through the backend.
func (w *Worker) transcribe(samples []float32) (string, string) {
	if !w.available {
		return TextUnavailable, observability.OutcomeUnavailable
	}
	if len(samples) == 0 {
		return TextEmpty, observability.OutcomeEmpty
	}
	if audio.Peak(samples) < audio.QuietPeak {
		return TextTooQuiet, observability.OutcomeQuiet
	}

	req := stt.Request{
		Samples:    audio.NormalizeToPeak(samples),
		SampleRate: w.config.SampleRate,
		Language:   w.settings.Language(),
	}

	// Bounded by the request timeout only; Stop never interrupts a call.
	ctx := context.Background()
	if w.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.RequestTimeout)
		defer cancel()
	}

	text, err := w.transcriber.Transcribe(ctx, req)
	if err != nil {
		if errors.Is(err, stt.ErrModelUnavailable) {
			return TextUnavailable, observability.OutcomeUnavailable
		}
		w.logger.Error().Err(err).Msg("Transcription failed")
		return fmt.Sprintf("Error: %v", err), observability.OutcomeError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return TextNoSpeech, observability.OutcomeNoSpeech
	}
	return text, observability.OutcomeSuccess
}
