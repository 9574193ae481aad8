package audio

import (
	"fmt"
	"time"
)

// Chunk is a fixed-duration slice of recorded audio persisted as a WAV file.
type Chunk struct {
	Index      int
	Path       string
	SampleRate int
	Samples    int
	Duration   time.Duration
	RecordedAt time.Time
}

// ChunkFileName returns the on-disk name for the chunk with the given index.
func ChunkFileName(index int) string {
	return fmt.Sprintf("chunk_%d.wav", index)
}

// SamplesDuration converts a sample count at rate into a duration.
func SamplesDuration(samples, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(rate)
}
