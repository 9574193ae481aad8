package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/queue"
	"github.com/rs/zerolog"
)

// ChunkHandler receives every completed chunk. It runs on the accumulation
// goroutine and must not block for long.
type ChunkHandler func(chunk audio.Chunk)

// Config holds recorder settings
type Config struct {
	SampleRate    int
	Channels      int
	ChunkDuration time.Duration
	PollInterval  time.Duration // Frame queue poll on the accumulation loop
	StopTimeout   time.Duration // Bounded join on Stop
	TempDir       string        // Parent directory for the chunk directory
}

// Recorder streams device audio into chunk files. Start and Stop may be
// called repeatedly; chunk indices keep increasing across sessions.
type Recorder struct {
	source Source
	config Config
	logger zerolog.Logger
	dir    string

	handlerMu sync.RWMutex
	handler   ChunkHandler

	nextIndex atomic.Int64

	mu        sync.Mutex
	recording bool
	deviceID  string
	stream    Stream
	frames    *queue.Queue[[]float32]
	stop      chan struct{}
	done      chan struct{}
}

// NewRecorder creates a recorder and its temporary chunk directory.
func NewRecorder(source Source, config Config, logger zerolog.Logger) (*Recorder, error) {
	if config.SampleRate <= 0 || config.ChunkDuration <= 0 {
		return nil, fmt.Errorf("sample rate and chunk duration must be positive")
	}
	if config.Channels <= 0 {
		config.Channels = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = time.Second
	}

	dir, err := os.MkdirTemp(config.TempDir, "transcriber-")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	return &Recorder{
		source: source,
		config: config,
		logger: logger.With().Str("component", "recorder").Logger(),
		dir:    dir,
	}, nil
}

// SetChunkHandler registers the consumer of completed chunks.
func (r *Recorder) SetChunkHandler(h ChunkHandler) {
	r.handlerMu.Lock()
	r.handler = h
	r.handlerMu.Unlock()
}

// Devices lists the available input devices.
func (r *Recorder) Devices() ([]Device, error) {
	return r.source.Devices()
}

// Dir returns the chunk directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// IsRecording reports whether capture is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// DeviceID returns the id of the device actually opened ("" for default).
func (r *Recorder) DeviceID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceID
}

// Start begins capture from deviceID, falling back to the default device
// if it cannot be opened. It is a no-op while already recording.
func (r *Recorder) Start(deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return nil
	}

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("failed to prepare chunk directory: %w", err)
	}

	frames := queue.New[[]float32]()
	onFrames := func(samples []float32) {
		frames.Put(samples)
	}

	stream, opened, err := r.open(deviceID, onFrames)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.accumulate(frames, stop, done)

	if err := stream.Start(); err != nil {
		close(stop)
		<-done
		stream.Close()
		return fmt.Errorf("%w: start stream: %v", ErrDeviceUnavailable, err)
	}

	r.recording = true
	r.deviceID = opened
	r.stream = stream
	r.frames = frames
	r.stop = stop
	r.done = done
	observability.SetRecording(true)

	r.logger.Info().
		Str("device", opened).
		Int("sample_rate", r.config.SampleRate).
		Dur("chunk_duration", r.config.ChunkDuration).
		Msg("Recording started")

	return nil
}

func (r *Recorder) open(deviceID string, onFrames FrameFunc) (Stream, string, error) {
	if deviceID != "" {
		stream, err := r.source.Open(deviceID, r.config.SampleRate, r.config.Channels, onFrames)
		if err == nil {
			return stream, deviceID, nil
		}
		r.logger.Warn().Err(err).Str("device", deviceID).Msg("Failed to open device, falling back to default")
	}

	stream, err := r.source.Open("", r.config.SampleRate, r.config.Channels, onFrames)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return stream, "", nil
}

// Stop halts capture and discards any partial chunk. It returns the chunk
// directory.
func (r *Recorder) Stop() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return r.dir
	}
	r.recording = false

	if err := r.stream.Stop(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to stop stream")
	}
	if err := r.stream.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to close stream")
	}

	close(r.stop)
	select {
	case <-r.done:
	case <-time.After(r.config.StopTimeout):
		r.logger.Warn().Dur("timeout", r.config.StopTimeout).Msg("Accumulation loop did not exit in time")
	}

	if dropped := r.frames.Drain(); len(dropped) > 0 {
		r.logger.Debug().Int("frames", len(dropped)).Msg("Discarded queued frames")
	}

	r.stream = nil
	observability.SetRecording(false)
	r.logger.Info().Msg("Recording stopped")

	return r.dir
}

// Cleanup stops recording and removes everything in the chunk directory,
// then the directory itself. Removal failures are logged and ignored.
func (r *Recorder) Cleanup() {
	r.Stop()

	entries, err := os.ReadDir(r.dir)
	if err != nil && !os.IsNotExist(err) {
		r.logger.Warn().Err(err).Str("dir", r.dir).Msg("Failed to list chunk directory")
	}
	for _, e := range entries {
		path := filepath.Join(r.dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove chunk file")
		}
	}

	if err := os.Remove(r.dir); err != nil && !os.IsNotExist(err) {
		r.logger.Warn().Err(err).Str("dir", r.dir).Msg("Failed to remove chunk directory")
	}
}

// accumulate drains device frames and cuts a chunk each time the target
// sample count is reached.
func (r *Recorder) accumulate(frames *queue.Queue[[]float32], stop, done chan struct{}) {
	defer close(done)

	target := int(r.config.ChunkDuration.Seconds() * float64(r.config.SampleRate))
	var pending [][]float32
	count := 0

	for {
		select {
		case <-stop:
			if count > 0 {
				r.logger.Debug().Int("samples", count).Msg("Discarding partial chunk")
			}
			return
		default:
		}

		frame, ok := frames.Get(r.config.PollInterval)
		if !ok {
			continue
		}
		frames.TaskDone()

		pending = append(pending, frame)
		count += len(frame)
		observability.RecordSamples(len(frame))

		if count >= target {
			r.emit(pending, count)
			pending = nil
			count = 0
		}
	}
}

func (r *Recorder) emit(pending [][]float32, count int) {
	samples := make([]float32, 0, count)
	for _, f := range pending {
		samples = append(samples, f...)
	}

	index := int(r.nextIndex.Add(1) - 1)
	path := filepath.Join(r.dir, audio.ChunkFileName(index))

	if err := audio.WriteWAV(path, samples, r.config.SampleRate); err != nil {
		r.logger.Error().Err(err).Int("chunk", index).Msg("Failed to write chunk")
		return
	}

	chunk := audio.Chunk{
		Index:      index,
		Path:       path,
		SampleRate: r.config.SampleRate,
		Samples:    len(samples),
		Duration:   audio.SamplesDuration(len(samples), r.config.SampleRate),
		RecordedAt: time.Now(),
	}
	observability.RecordChunk()

	if index%10 == 0 {
		r.logger.Debug().Int("chunk", index).Int("samples", len(samples)).Msg("Chunk recorded")
	}

	r.handlerMu.RLock()
	handler := r.handler
	r.handlerMu.RUnlock()

	if handler != nil {
		handler(chunk)
	}
}
