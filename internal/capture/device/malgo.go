// Package device implements capture.Source on top of miniaudio via malgo.
package device

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/capture"
	"github.com/rs/zerolog"
)

// Source enumerates capture devices through a single miniaudio context.
// Device ids are positions in the most recent enumeration.
type Source struct {
	ctx    *malgo.AllocatedContext
	logger zerolog.Logger

	mu    sync.Mutex
	infos []malgo.DeviceInfo
}

// NewSource initialises the platform audio backend.
func NewSource(logger zerolog.Logger) (*Source, error) {
	logger = logger.With().Str("component", "audio-device").Logger()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug().Str("backend_message", message).Msg("miniaudio")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}

	return &Source{ctx: ctx, logger: logger}, nil
}

// Devices lists capture devices.
func (s *Source) Devices() ([]capture.Device, error) {
	infos, err := s.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	s.mu.Lock()
	s.infos = infos
	s.mu.Unlock()

	devices := make([]capture.Device, len(infos))
	for i, info := range infos {
		devices[i] = capture.Device{
			ID:      strconv.Itoa(i),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		}
	}
	return devices, nil
}

// Open prepares a capture stream delivering mono float32 frames.
func (s *Source) Open(deviceID string, sampleRate, channels int, onFrames capture.FrameFunc) (capture.Stream, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	if deviceID != "" {
		info, err := s.lookup(deviceID)
		if err != nil {
			return nil, err
		}
		cfg.Capture.DeviceID = info.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			samples := audio.Float32BytesToFloat32(input)
			onFrames(audio.DownmixToMono(samples, channels))
		},
	}

	dev, err := malgo.InitDevice(s.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %q: %w", deviceID, err)
	}
	return &stream{dev: dev}, nil
}

func (s *Source) lookup(deviceID string) (*malgo.DeviceInfo, error) {
	idx, err := strconv.Atoi(deviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid device id %q", deviceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.infos == nil {
		infos, err := s.ctx.Devices(malgo.Capture)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
		}
		s.infos = infos
	}
	if idx < 0 || idx >= len(s.infos) {
		return nil, fmt.Errorf("unknown device id %q", deviceID)
	}
	return &s.infos[idx], nil
}

// Close releases the audio backend.
func (s *Source) Close() error {
	if err := s.ctx.Uninit(); err != nil {
		return fmt.Errorf("failed to uninit audio context: %w", err)
	}
	s.ctx.Free()
	return nil
}

type stream struct {
	dev *malgo.Device
}

func (s *stream) Start() error {
	return s.dev.Start()
}

func (s *stream) Stop() error {
	return s.dev.Stop()
}

func (s *stream) Close() error {
	s.dev.Uninit()
	return nil
}

var _ capture.Source = (*Source)(nil)
