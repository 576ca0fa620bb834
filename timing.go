package musicgraph

import "math"

// Output format of every render. These are fixed: downstream encoders are
// configured for exactly this layout.
const (
	SampleRate    = 44100
	NumChannels   = 1
	BitsPerSample = 16
)

// sampleEpsilon absorbs float noise in products such as 4.8*44100 that are
// integral in exact arithmetic.
const sampleEpsilon = 1e-6

// StartSample is the index of the first sample of n, given the duration of a
// grid space in seconds.
func StartSample(n Note, gridSpace float64) int {
	return int(math.Round(float64(n.position) * gridSpace * SampleRate))
}

// EndSample is the index one past the last sample of n.
func EndSample(n Note, gridSpace float64) int {
	return int(math.Round(float64(n.EndPosition()) * gridSpace * SampleRate))
}

// NumSamples is the number of samples needed to hold seconds of audio. It
// saturates at math.MaxInt instead of overflowing.
func NumSamples(seconds float64) int {
	n := math.Ceil(seconds*SampleRate - sampleEpsilon)
	switch {
	case n <= 0 || math.IsNaN(n):
		return 0
	case n >= math.MaxInt:
		return math.MaxInt
	}
	return int(n)
}
