package synth

import "github.com/wanmine/musicgraph"

// NoiseSource is a multiplicative linear congruential generator. It is
// seeded explicitly so that renders of the same graph are bit identical, and
// can be advanced by any number of steps in logarithmic time so that a note
// split between workers produces the same noise as an unsplit one.
type NoiseSource struct {
	state uint32
}

const noiseMultiplier = 16007

// NewNoiseSource returns a generator for the seed. All seeds are valid; the
// state is forced odd to stay on the long cycle of the generator.
func NewNoiseSource(seed uint64) *NoiseSource {
	return &NoiseSource{state: uint32(seed^seed>>32) | 1}
}

// Next returns the next value in [-1, 1].
func (s *NoiseSource) Next() float64 {
	s.state *= noiseMultiplier
	return float64(int32(s.state)) / -2147483648.0
}

// Skip advances the generator as if Next had been called n times.
func (s *NoiseSource) Skip(n int) {
	m := uint32(noiseMultiplier)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			s.state *= m
		}
		m *= m
	}
}

// NoteSeed derives the noise seed of a note from the hash of the graph it is
// rendered in and the note itself.
func NoteSeed(graphHash uint64, n musicgraph.Note) uint64 {
	const prime = 1099511628211
	h := graphHash
	for _, v := range []int{n.Octave(), n.Semitone(), n.Position(), n.Length(), int(n.Instrument())} {
		h = (h ^ uint64(v)) * prime
	}
	return h
}
