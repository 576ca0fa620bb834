package synth

import (
	"math"

	"github.com/wanmine/musicgraph"
)

// Oscillate returns the value of waveform w at frequency freq, t seconds
// after the start of the note. The result is in [-1, 1]. Noise reads the
// next value from noise; a nil source gives silence.
func Oscillate(w musicgraph.Waveform, freq, t float64, noise *NoiseSource) float64 {
	switch w {
	case musicgraph.Sine:
		return math.Sin(2 * math.Pi * freq * t)
	case musicgraph.Square:
		if math.Sin(2*math.Pi*freq*t) >= 0 {
			return 1
		}
		return -1
	case musicgraph.Triangle:
		phase := phase(freq, t)
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case musicgraph.Sawtooth:
		return 2*phase(freq, t) - 1
	case musicgraph.Noise:
		if noise == nil {
			return 0
		}
		return noise.Next()
	}
	return 0
}

// phase is the position within the current period, in [0, 1).
func phase(freq, t float64) float64 {
	p := freq * t
	return p - math.Floor(p)
}
