// Package openai transcribes audio with the OpenAI audio transcription API.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "whisper-1"

// Transcriber uploads each request as an in-memory WAV file.
type Transcriber struct {
	client oai.Client
	model  string
}

// New creates an OpenAI transcriber. baseURL may be empty.
func New(apiKey, model, baseURL string) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // retries are handled by stt.Guard
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Transcriber{
		client: oai.NewClient(opts...),
		model:  model,
	}, nil
}

// Transcribe sends the audio and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	wav, err := audio.EncodeWAVBytes(req.Samples, req.SampleRate)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), "chunk.wav", "audio/wav"),
		Model: oai.AudioModel(t.model),
	}
	if req.Language != "" {
		params.Language = oai.String(req.Language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
