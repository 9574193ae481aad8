package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexiqai/live-transcriber/internal/stt"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", "", ""); err == nil {
		t.Error("Expected error for empty api key")
	}
}

func TestTranscribe(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  Hyvää päivää  "}`))
	}))
	defer server.Close()

	tr, err := New("sk-test", "", server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	text, err := tr.Transcribe(context.Background(), stt.Request{
		Samples:    make([]float32, 1600),
		SampleRate: 16000,
		Language:   "fi",
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if text != "Hyvää päivää" {
		t.Errorf("Expected trimmed text, got %q", text)
	}
	if !strings.HasSuffix(gotPath, "/audio/transcriptions") {
		t.Errorf("Expected /audio/transcriptions, got %s", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if !strings.Contains(gotBody, "whisper-1") || !strings.Contains(gotBody, "chunk.wav") {
		t.Error("Expected multipart body with model and file name")
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	tr, err := New("sk-test", "", server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := tr.Transcribe(context.Background(), stt.Request{Samples: make([]float32, 160), SampleRate: 16000}); err == nil {
		t.Error("Expected error for 401 response")
	}
}
