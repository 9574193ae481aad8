package audio

import (
	"encoding/binary"
	"math"
)

// QuietPeak is the peak amplitude below which a buffer is considered too
// quiet to transcribe.
const QuietPeak = 0.001

// floatToPCM16 scales one sample to 16-bit PCM, clipping outside [-1, 1].
func floatToPCM16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * 32767))
}

// Float32BytesToFloat32 decodes little-endian IEEE-754 float32 frames.
func Float32BytesToFloat32(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
	}
	return out
}

// DownmixToMono averages interleaved channels per frame.
func DownmixToMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Resample performs linear interpolation resampling. Good enough for
// feeding speech models that expect 16 kHz input.
func Resample(samples []float32, inputRate, outputRate int) []float32 {
	if inputRate == outputRate || inputRate <= 0 || outputRate <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]float32, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio

		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		fraction := float32(srcPos - float64(idx0))
		output[i] = samples[idx0]*(1-fraction) + samples[idx1]*fraction
	}

	return output
}

// Peak returns the maximum absolute amplitude.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// NormalizeToPeak scales samples so the loudest one has magnitude 1.0.
// An all-zero buffer is returned as a zeroed copy.
func NormalizeToPeak(samples []float32) []float32 {
	out := make([]float32, len(samples))
	peak := Peak(samples)
	if peak == 0 {
		return out
	}
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// CalculateRMS calculates the root mean square of samples.
func CalculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
