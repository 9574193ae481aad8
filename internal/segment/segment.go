// Package segment splits mono audio into speech regions separated by silence
// and assigns naive speaker labels to them.
package segment

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSampleRate is returned when segmentation is asked for a
// non-positive sample rate.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// Segment is a speech region in seconds from the start of the buffer.
type Segment struct {
	Start   float64
	End     float64
	Speaker string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Bounds converts the segment into sample offsets, clamped to n.
func (s Segment) Bounds(sampleRate, n int) (int, int) {
	start := int(s.Start * float64(sampleRate))
	end := int(s.End * float64(sampleRate))
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// Config holds the silence detection parameters
type Config struct {
	EnergyThreshold float64       // Normalized amplitude below which a sample is silent
	MinSilence      time.Duration // Shortest silence that separates two segments
	MinSegment      time.Duration // Shortest segment that is kept
}

// DefaultConfig returns the default segmentation parameters
func DefaultConfig() *Config {
	return &Config{
		EnergyThreshold: 0.05,
		MinSilence:      500 * time.Millisecond,
		MinSegment:      time.Second,
	}
}

// Labeler names the speaker of the i-th segment in a buffer.
type Labeler interface {
	Label(i int) string
}

// AlternatingLabeler assumes two speakers taking strict turns. It looks at no
// voice features.
type AlternatingLabeler struct{}

// Label returns SPEAKER_00 for even turns and SPEAKER_01 for odd ones.
func (AlternatingLabeler) Label(i int) string {
	return fmt.Sprintf("SPEAKER_%02d", i%2)
}

// Segmenter detects speech segments using an energy threshold
type Segmenter struct {
	config  *Config
	labeler Labeler
}

// NewSegmenter creates a segmenter. A nil config selects DefaultConfig and a
// nil labeler selects AlternatingLabeler.
func NewSegmenter(config *Config, labeler Labeler) *Segmenter {
	if config == nil {
		config = DefaultConfig()
	}
	if labeler == nil {
		labeler = AlternatingLabeler{}
	}
	return &Segmenter{config: config, labeler: labeler}
}

// DetectSegments returns the unlabeled speech segments of samples, ordered
// and non-overlapping. A buffer with no sound at all has no segments.
func (s *Segmenter) DetectSegments(samples []float32, sampleRate int) ([]Segment, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	n := len(samples)
	if n == 0 {
		return nil, nil
	}

	var peak float32
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return nil, nil
	}

	threshold := float32(s.config.EnergyThreshold) * peak
	minSilence := int(s.config.MinSilence.Seconds() * float64(sampleRate))
	if minSilence < 1 {
		minSilence = 1
	}

	// Walk the buffer once, cutting a candidate at every qualifying silence run
	var candidates [][2]int
	cursor := 0
	runStart := -1
	for i := 0; i <= n; i++ {
		silent := false
		if i < n {
			v := samples[i]
			if v < 0 {
				v = -v
			}
			silent = v < threshold
		}

		if silent {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if i-runStart >= minSilence {
				if runStart > cursor {
					candidates = append(candidates, [2]int{cursor, runStart})
				}
				cursor = i
			}
			runStart = -1
		}
	}
	if cursor < n {
		candidates = append(candidates, [2]int{cursor, n})
	}

	minSegment := s.config.MinSegment.Seconds()
	rate := float64(sampleRate)
	segments := make([]Segment, 0, len(candidates))
	for _, c := range candidates {
		seg := Segment{Start: float64(c[0]) / rate, End: float64(c[1]) / rate}
		if seg.Duration() >= minSegment {
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

// SpeakerTurns detects segments and labels them in order.
func (s *Segmenter) SpeakerTurns(samples []float32, sampleRate int) ([]Segment, error) {
	segments, err := s.DetectSegments(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	for i := range segments {
		segments[i].Speaker = s.labeler.Label(i)
	}
	return segments, nil
}
