package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	os.Setenv("STT_BACKEND", "openai")
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("STT_BACKEND")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.STTBackend != BackendOpenAI {
		t.Errorf("Expected STTBackend 'openai', got '%s'", cfg.STTBackend)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		backend string
		keyVar  string
	}{
		{BackendOpenAI, "OPENAI_API_KEY"},
		{BackendDeepgram, "DEEPGRAM_API_KEY"},
		{BackendAssemblyAI, "ASSEMBLYAI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			os.Setenv("STT_BACKEND", tt.backend)
			os.Unsetenv(tt.keyVar)
			defer os.Unsetenv("STT_BACKEND")

			_, err := LoadFromEnv()
			if err == nil {
				t.Errorf("Expected error when %s is missing", tt.keyVar)
			}
		})
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	os.Setenv("STT_BACKEND", "kaldi")
	defer os.Unsetenv("STT_BACKEND")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	// Check defaults
	if cfg.HTTPHost != "127.0.0.1" {
		t.Errorf("Expected default HTTPHost '127.0.0.1', got '%s'", cfg.HTTPHost)
	}

	if cfg.TranscriptDir != "transcripts" {
		t.Errorf("Expected default TranscriptDir 'transcripts', got '%s'", cfg.TranscriptDir)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("Expected default HTTPPort '8080', got '%s'", cfg.HTTPPort)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}

	if cfg.Channels != 1 {
		t.Errorf("Expected default Channels 1, got %d", cfg.Channels)
	}

	if cfg.ChunkDuration != 5*time.Second {
		t.Errorf("Expected default ChunkDuration 5s, got %v", cfg.ChunkDuration)
	}

	if cfg.Language != "fi" {
		t.Errorf("Expected default Language 'fi', got '%s'", cfg.Language)
	}

	if !cfg.DiarizationEnabled {
		t.Error("Expected diarization enabled by default")
	}

	if cfg.STTBackend != BackendWhisper {
		t.Errorf("Expected default STTBackend 'whisper', got '%s'", cfg.STTBackend)
	}
}

func TestConfig_SegmentDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.SegmentEnergyThreshold != 0.05 {
		t.Errorf("Expected default SegmentEnergyThreshold 0.05, got %f", cfg.SegmentEnergyThreshold)
	}

	if cfg.SegmentMinSilence != 500*time.Millisecond {
		t.Errorf("Expected default SegmentMinSilence 500ms, got %v", cfg.SegmentMinSilence)
	}

	if cfg.SegmentMinDuration != time.Second {
		t.Errorf("Expected default SegmentMinDuration 1s, got %v", cfg.SegmentMinDuration)
	}

	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("Expected default PollInterval 100ms, got %v", cfg.PollInterval)
	}

	if cfg.StopTimeout != time.Second {
		t.Errorf("Expected default StopTimeout 1s, got %v", cfg.StopTimeout)
	}
}

func TestLoad_InvalidChunkDuration(t *testing.T) {
	os.Setenv("CHUNK_DURATION", "200ms")
	defer os.Unsetenv("CHUNK_DURATION")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for chunk duration below one second")
	}
}

func TestLoad_SampleRateFixed(t *testing.T) {
	os.Setenv("AUDIO_SAMPLE_RATE", "48000")
	defer os.Unsetenv("AUDIO_SAMPLE_RATE")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for a sample rate other than 16000")
	}
}

func TestLoad_ArchiveRequiresCredentials(t *testing.T) {
	os.Setenv("ARCHIVE_ENABLED", "true")
	defer os.Unsetenv("ARCHIVE_ENABLED")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when archive is enabled without credentials")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	// Clear LOG_LEVEL to ensure we get the default
	os.Unsetenv("LOG_LEVEL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
