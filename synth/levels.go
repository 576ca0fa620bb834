package synth

import (
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/wanmine/musicgraph"
)

// Levels summarizes the loudness of a buffer. Both values are relative to
// full scale: 1.0 is a sample of magnitude 32768.
type Levels struct {
	Peak float32
	RMS  float32
}

// Analyze measures the peak and RMS level of buf.
func Analyze(buf musicgraph.AudioBuffer) Levels {
	if len(buf) == 0 {
		return Levels{}
	}
	x := make([]float32, len(buf))
	for i, v := range buf {
		x[i] = float32(v) / 32768
	}
	power := vek32.Dot(x, x) / float32(len(x))
	vek32.Abs_Inplace(x)
	return Levels{Peak: vek32.Max(x), RMS: float32(math.Sqrt(float64(power)))}
}

// PeakDB returns the peak level in decibels relative to full scale.
func (l Levels) PeakDB() float64 {
	return 20 * math.Log10(float64(l.Peak))
}

func (l Levels) RMSDB() float64 {
	return 20 * math.Log10(float64(l.RMS))
}
