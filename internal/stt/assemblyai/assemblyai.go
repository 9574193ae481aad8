// Package assemblyai transcribes audio with the AssemblyAI API.
package assemblyai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

// Transcriber uploads each request and waits for the transcript to complete.
type Transcriber struct {
	client *aai.Client
}

// New creates an AssemblyAI transcriber. baseURL may be empty.
func New(apiKey, baseURL string) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assemblyai: api key must not be empty")
	}

	var opts []aai.ClientOption
	if baseURL != "" {
		opts = append(opts, aai.WithBaseURL(baseURL))
	}

	return &Transcriber{client: aai.NewClientWithOptions(append(opts, aai.WithAPIKey(apiKey))...)}, nil
}

// Transcribe uploads the audio and blocks until AssemblyAI finishes.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	wav, err := audio.EncodeWAVBytes(req.Samples, req.SampleRate)
	if err != nil {
		return "", fmt.Errorf("assemblyai: %w", err)
	}

	params := &aai.TranscriptOptionalParams{}
	if req.Language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(req.Language)
	}

	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(wav), params)
	if err != nil {
		return "", fmt.Errorf("assemblyai: transcription request: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		return "", fmt.Errorf("assemblyai: transcription failed: %s", aai.ToString(transcript.Error))
	}

	return strings.TrimSpace(aai.ToString(transcript.Text)), nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
