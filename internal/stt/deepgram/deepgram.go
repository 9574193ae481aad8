// Package deepgram transcribes audio with Deepgram's pre-recorded REST API.
package deepgram

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/lexiqai/live-transcriber/internal/audio"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "nova-2"

var initOnce sync.Once

// Transcriber posts each request as a WAV stream.
type Transcriber struct {
	client *api.Client
	model  string
}

// New creates a Deepgram transcriber.
func New(apiKey, model string) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram: api key must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	initOnce.Do(listenClient.InitWithDefault)

	c := listenClient.NewREST(apiKey, &interfaces.ClientOptions{})

	return &Transcriber{
		client: api.New(c),
		model:  model,
	}, nil
}

// Transcribe sends the audio and returns the best alternative of the first
// channel.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	wav, err := audio.EncodeWAVBytes(req.Samples, req.SampleRate)
	if err != nil {
		return "", fmt.Errorf("deepgram: %w", err)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.model,
		Language:    req.Language,
		Punctuate:   true,
		SmartFormat: true,
	}

	res, err := t.client.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return "", fmt.Errorf("deepgram: transcription request: %w", err)
	}

	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 {
		return "", nil
	}
	alternatives := res.Results.Channels[0].Alternatives
	if len(alternatives) == 0 {
		return "", nil
	}

	return strings.TrimSpace(alternatives[0].Transcript), nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
