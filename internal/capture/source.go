// Package capture records microphone audio into fixed-duration WAV chunks.
package capture

import "errors"

// ErrDeviceUnavailable is returned when neither the requested nor the
// default input device can be opened.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// Device describes an audio input device.
type Device struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// FrameFunc receives mono float32 frames from the device callback. The
// slice is owned by the receiver.
type FrameFunc func(samples []float32)

// Stream is an opened input device.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Source enumerates and opens input devices. An empty device id opens the
// system default.
type Source interface {
	Devices() ([]Device, error)
	Open(deviceID string, sampleRate, channels int, onFrames FrameFunc) (Stream, error)
}
