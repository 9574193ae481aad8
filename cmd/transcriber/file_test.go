package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

type echoBackend struct{}

func (echoBackend) Transcribe(context.Context, stt.Request) (string, error) {
	return "hei", nil
}

func writeMeeting(t *testing.T, dir string) string {
	t.Helper()
	// 3 s silence, 2 s tone, 1 s silence, 2 s tone
	var samples []float32
	for i, seconds := range []float64{3, 2, 1, 2} {
		for j := 0; j < int(seconds*16000); j++ {
			var v float32
			if i%2 == 1 {
				v = float32(0.5 * math.Sin(2*math.Pi*440*float64(j)/16000))
			}
			samples = append(samples, v)
		}
	}
	path := filepath.Join(dir, "meeting.wav")
	if err := audio.WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	return path
}

func TestRunFile_Diarized(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "transcription.txt")

	err := runFile(context.Background(), echoBackend{}, nil, fileJob{
		Input:    writeMeeting(t, dir),
		Output:   output,
		Language: "fi",
		Diarize:  true,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("runFile failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "SPEAKER_00: hei\nSPEAKER_01: hei" {
		t.Errorf("Unexpected transcript %q", data)
	}
}

func TestRunFile_Plain(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "transcription.txt")

	err := runFile(context.Background(), echoBackend{}, nil, fileJob{
		Input:  writeMeeting(t, dir),
		Output: output,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("runFile failed: %v", err)
	}

	data, _ := os.ReadFile(output)
	if string(data) != "hei" {
		t.Errorf("Expected one 30 s piece, got %q", data)
	}
}

func TestRunFile_NoSpeech(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "silence.wav")
	if err := audio.WriteWAV(input, make([]float32, 16000), 16000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	output := filepath.Join(dir, "transcription.txt")

	err := runFile(context.Background(), echoBackend{}, nil, fileJob{Input: input, Output: output}, zerolog.Nop())
	if err == nil {
		t.Error("Expected error when no speech is recognized")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("Expected no output file, got %v", statErr)
	}
}
