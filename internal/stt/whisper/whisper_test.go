package whisper

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/lexiqai/live-transcriber/internal/stt"
	"github.com/rs/zerolog"
)

func TestNew_MissingModel(t *testing.T) {
	_, err := New("/nonexistent/ggml-small.bin", zerolog.Nop())
	if !errors.Is(err, stt.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}
}

func TestTranscribe_Model(t *testing.T) {
	modelPath := os.Getenv("WHISPER_TEST_MODEL")
	if modelPath == "" {
		t.Skip("Skipping whisper model test: set WHISPER_TEST_MODEL to a ggml model path")
	}

	tr, err := New(modelPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tr.Close()

	samples := make([]float32, 16000*2)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*220*float64(i)/16000))
	}

	if _, err := tr.Transcribe(context.Background(), stt.Request{Samples: samples, SampleRate: 16000, Language: "fi"}); err != nil {
		t.Errorf("Transcribe failed: %v", err)
	}
}
