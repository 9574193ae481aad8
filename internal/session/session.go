// Package session ties the recorder and the transcription worker together
// and turns their output into transcript updates.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/capture"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/pipeline"
	"github.com/lexiqai/live-transcriber/internal/queue"
	"github.com/lexiqai/live-transcriber/internal/storage"
	"github.com/rs/zerolog"
)

// Update kinds
const (
	UpdateStatus     = "status"
	UpdateTranscript = "transcript"
)

// Update is one change pushed to the UI.
type Update struct {
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	QueueDepth int       `json:"queue_depth"`
	Time       time.Time `json:"time"`
}

// Info is a snapshot of the session for the control surface.
type Info struct {
	ID          string `json:"id"`
	Recording   bool   `json:"recording"`
	DeviceID    string `json:"device_id"`
	Language    string `json:"language"`
	Diarization bool   `json:"diarization"`
	QueueDepth  int    `json:"queue_depth"`
}

// Recorder is the capture side of a session.
type Recorder interface {
	Start(deviceID string) error
	Stop() string
	Cleanup()
	DeviceID() string
	Devices() ([]capture.Device, error)
	SetChunkHandler(h capture.ChunkHandler)
}

// Session is one live transcription session.
type Session struct {
	id         string
	state      *State
	transcript *Transcript
	recorder   Recorder
	worker     *pipeline.Worker
	status     *queue.Queue[string]
	logger     zerolog.Logger
}

// New wires recorder output into worker and starts the worker.
func New(id string, recorder Recorder, worker *pipeline.Worker, state *State, logger zerolog.Logger) *Session {
	s := &Session{
		id:         id,
		state:      state,
		transcript: &Transcript{},
		recorder:   recorder,
		worker:     worker,
		status:     queue.New[string](),
		logger:     logger.With().Str("component", "session").Str("session_id", id).Logger(),
	}

	recorder.SetChunkHandler(s.onChunk)
	worker.Start()

	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the shared session options.
func (s *Session) State() *State {
	return s.state
}

// Transcript returns the transcript buffer.
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// Devices lists input devices.
func (s *Session) Devices() ([]capture.Device, error) {
	return s.recorder.Devices()
}

// QueueDepth returns the number of chunks awaiting transcription.
func (s *Session) QueueDepth() int {
	return s.worker.QueueDepth()
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	return Info{
		ID:          s.id,
		Recording:   s.state.Recording(),
		DeviceID:    s.state.DeviceID(),
		Language:    s.state.Language(),
		Diarization: s.state.DiarizationEnabled(),
		QueueDepth:  s.worker.QueueDepth(),
	}
}

// StartRecording begins capture from deviceID.
func (s *Session) StartRecording(deviceID string) error {
	if err := s.recorder.Start(deviceID); err != nil {
		s.status.Put(fmt.Sprintf("Recording failed: %v", err))
		return fmt.Errorf("failed to start recording: %w", err)
	}

	s.state.setRecording(true, s.recorder.DeviceID())
	s.status.Put("Recording...")
	s.logger.Info().Str("device", deviceID).Msg("Session recording")
	return nil
}

// StopRecording halts capture. Chunks already queued are still transcribed.
func (s *Session) StopRecording() {
	dir := s.recorder.Stop()
	s.state.setRecording(false, "")
	s.status.Put("Recording stopped")
	s.logger.Info().Str("chunk_dir", dir).Msg("Session stopped")
}

// Export writes the transcript to sink under name.
func (s *Session) Export(ctx context.Context, sink storage.Sink, name string) error {
	text := s.transcript.Text()
	if text == "" {
		return storage.ErrEmptyTranscript
	}
	return sink.Save(ctx, name, text)
}

// Poll drains pending status messages and results, appends non-empty
// results to the transcript and returns the resulting updates in order.
func (s *Session) Poll() []Update {
	var updates []Update
	now := time.Now()

	for _, msg := range s.status.Drain() {
		updates = append(updates, Update{Kind: UpdateStatus, Text: msg, QueueDepth: s.worker.QueueDepth(), Time: now})
	}

	for {
		result, ok := s.worker.Results().TryGet()
		if !ok {
			break
		}
		s.worker.Results().TaskDone()

		if text := strings.TrimSpace(result.Text); text != "" {
			s.transcript.Append(text)
			updates = append(updates, Update{Kind: UpdateTranscript, Text: text, QueueDepth: s.worker.QueueDepth(), Time: now})
		}

		depth := s.worker.QueueDepth()
		updates = append(updates, Update{
			Kind:       UpdateStatus,
			Text:       fmt.Sprintf("Transcribed. Queued: %d", depth),
			QueueDepth: depth,
			Time:       now,
		})
	}

	return updates
}

// Close stops recording, removes chunk files and stops the worker.
func (s *Session) Close() {
	s.recorder.Cleanup()
	s.state.setRecording(false, "")
	s.worker.Stop()
}

func (s *Session) onChunk(chunk audio.Chunk) {
	if !s.worker.Enqueue(chunk) {
		return
	}
	depth := s.worker.QueueDepth()
	observability.SetQueueDepth(depth)
	s.status.Put(fmt.Sprintf("Transcribing... (queued: %d)", depth))
}
