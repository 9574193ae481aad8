package segment

import (
	"fmt"

	"github.com/lexiqai/live-transcriber/internal/audio"
)

// SpeakerTurnsFromFile labels the speech segments of a WAV file. Stereo
// files are down-mixed to mono first.
func (s *Segmenter) SpeakerTurnsFromFile(path string) ([]Segment, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s.SpeakerTurns(samples, rate)
}
