package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported speech-to-text backends
const (
	BackendWhisper    = "whisper"
	BackendOpenAI     = "openai"
	BackendDeepgram   = "deepgram"
	BackendAssemblyAI = "assemblyai"
)

// Config holds all configuration for the transcriber service
type Config struct {
	// Server configuration
	HTTPHost string `envconfig:"HTTP_HOST" default:"127.0.0.1"` // Bind address for HTTP and gRPC; loopback only by default
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080" validate:"required"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"9090" validate:"required"`

	// Audio capture configuration
	SampleRate    int           `envconfig:"AUDIO_SAMPLE_RATE" default:"16000" validate:"eq=16000"` // Chunk files are 16 kHz
	Channels      int           `envconfig:"AUDIO_CHANNELS" default:"1" validate:"eq=1"`                     // Mono only
	ChunkDuration time.Duration `envconfig:"CHUNK_DURATION" default:"5s" validate:"min=1s"`                   // At least one second
	AudioDevice   string        `envconfig:"AUDIO_DEVICE" default:""`                                        // Empty selects the system default
	TempDir       string        `envconfig:"TEMP_DIR" default:""`                                            // Parent for the chunk directory

	// Saved transcripts are written below this directory
	TranscriptDir string `envconfig:"TRANSCRIPT_DIR" default:"transcripts" validate:"required"`

	// Transcription configuration
	Language           string        `envconfig:"LANGUAGE" default:"fi" validate:"required"`
	DiarizationEnabled bool          `envconfig:"DIARIZATION_ENABLED" default:"true"`
	STTBackend         string        `envconfig:"STT_BACKEND" default:"whisper" validate:"oneof=whisper openai deepgram assemblyai"`
	STTTimeout         time.Duration `envconfig:"STT_TIMEOUT" default:"60s"`

	// Whisper (local whisper.cpp model)
	WhisperModelPath string `envconfig:"WHISPER_MODEL_PATH" default:"models/ggml-small.bin"`

	// OpenAI audio transcription
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"whisper-1"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:""`

	// Deepgram pre-recorded transcription
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base

	// AssemblyAI transcription
	AssemblyAIAPIKey string `envconfig:"ASSEMBLYAI_API_KEY" default:""`

	// Silence segmentation configuration
	SegmentEnergyThreshold float64       `envconfig:"SEGMENT_ENERGY_THRESHOLD" default:"0.05" validate:"gt=0,lt=1"`
	SegmentMinSilence      time.Duration `envconfig:"SEGMENT_MIN_SILENCE" default:"500ms"`
	SegmentMinDuration     time.Duration `envconfig:"SEGMENT_MIN_DURATION" default:"1s"`

	// Pipeline timing
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"100ms"`    // Worker and recorder queue poll
	StopTimeout    time.Duration `envconfig:"STOP_TIMEOUT" default:"1s"`        // Bounded join on stop
	UpdateInterval time.Duration `envconfig:"UPDATE_INTERVAL" default:"100ms"` // Presentation pump tick

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Transcript archive (MinIO / S3 compatible)
	ArchiveEnabled bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY" default:""`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY" default:""`
	MinIOBucket    string `envconfig:"MINIO_BUCKET" default:"transcripts"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

var validate = validator.New()

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the credentials required by the
// selected backend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.SegmentMinSilence <= 0 || c.SegmentMinDuration <= 0 {
		return fmt.Errorf("SEGMENT_MIN_SILENCE and SEGMENT_MIN_DURATION must be positive")
	}

	switch c.STTBackend {
	case BackendWhisper:
		if c.WhisperModelPath == "" {
			return fmt.Errorf("WHISPER_MODEL_PATH is required for the whisper backend")
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
	case BackendDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram backend")
		}
	case BackendAssemblyAI:
		if c.AssemblyAIAPIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required for the assemblyai backend")
		}
	}

	if c.ArchiveEnabled && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when ARCHIVE_ENABLED is set")
	}

	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
