package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/wanmine/musicgraph"
)

type (
	// Mixer renders a whole graph into a mono 16-bit buffer.
	//
	// Every note adds Envelope*Oscillate*Amplitude to the samples it covers.
	// Contributions are summed in floating point, and each sum is rounded and
	// clamped to the 16-bit range once, so overlapping notes never lose
	// headroom to intermediate clipping. The result does not depend on
	// Workers or on the order the notes were added in.
	Mixer struct {
		// Workers is the number of goroutines rendering in parallel; zero or
		// less means runtime.NumCPU().
		Workers int
		// Amplitude scales a full-scale note; zero means DefaultAmplitude.
		Amplitude float64
	}

	voice struct {
		start, end int // samples
		duration   float64
		frequency  float64
		waveform   musicgraph.Waveform
		seed       uint64
	}

	segment struct {
		lo, hi int
	}
)

const (
	DefaultAmplitude = 16384

	// MaxSamples limits the length of a render to one hour of audio.
	MaxSamples = 3600 * musicgraph.SampleRate

	segmentLength = musicgraph.SampleRate / 4
)

var ErrTooLong = errors.New("composition is too long to render")

// Render takes a snapshot of g and synthesizes it. It returns ctx.Err() if
// ctx is cancelled before the render completes.
func (m Mixer) Render(ctx context.Context, g *musicgraph.Graph) (musicgraph.AudioBuffer, error) {
	s := g.Copy()
	seconds := s.TotalDuration()
	if seconds*musicgraph.SampleRate > MaxSamples {
		return nil, fmt.Errorf("%.0f s exceeds the limit of %d samples: %w", seconds, MaxSamples, ErrTooLong)
	}
	length := musicgraph.NumSamples(seconds)
	voices := makeVoices(s, length)
	out := make(musicgraph.AudioBuffer, length)
	amplitude := m.Amplitude
	if amplitude == 0 {
		amplitude = DefaultAmplitude
	}
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	segments := make(chan segment, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := make([]float64, segmentLength)
			for seg := range segments {
				if ctx.Err() != nil {
					continue
				}
				mix(voices, seg, acc[:seg.hi-seg.lo], amplitude)
				for i, v := range acc[:seg.hi-seg.lo] {
					out[seg.lo+i] = clamp(v)
				}
			}
		}()
	}
loop:
	for lo := 0; lo < length; lo += segmentLength {
		select {
		case segments <- segment{lo: lo, hi: min(lo+segmentLength, length)}:
		case <-ctx.Done():
			break loop
		}
	}
	close(segments)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func makeVoices(g *musicgraph.Graph, length int) []voice {
	gridSpace := g.GridSpaceDuration()
	hash := g.Hash()
	notes := g.Notes()
	voices := make([]voice, 0, len(notes))
	for _, n := range notes {
		start := musicgraph.StartSample(n, gridSpace)
		end := musicgraph.EndSample(n, gridSpace)
		if start >= length || end <= start {
			continue
		}
		voices = append(voices, voice{
			start:     start,
			end:       min(end, length),
			duration:  float64(end-start) / musicgraph.SampleRate,
			frequency: n.Frequency(),
			waveform:  n.Instrument().Waveform(),
			seed:      NoteSeed(hash, n),
		})
	}
	// floating point sums depend on their order, so fix it independently of
	// the insertion order of the notes
	sort.Slice(voices, func(i, j int) bool {
		a, b := voices[i], voices[j]
		switch {
		case a.start != b.start:
			return a.start < b.start
		case a.end != b.end:
			return a.end < b.end
		case a.waveform != b.waveform:
			return a.waveform < b.waveform
		case a.frequency != b.frequency:
			return a.frequency < b.frequency
		}
		return a.seed < b.seed
	})
	return voices
}

// mix accumulates every voice sounding in seg into acc, which holds the
// samples [seg.lo, seg.hi).
func mix(voices []voice, seg segment, acc []float64, amplitude float64) {
	clear(acc)
	for _, v := range voices {
		from, to := max(v.start, seg.lo), min(v.end, seg.hi)
		if from >= to {
			continue
		}
		var noise *NoiseSource
		if v.waveform == musicgraph.Noise {
			noise = NewNoiseSource(v.seed)
			noise.Skip(from - v.start)
		}
		for i := from; i < to; i++ {
			t := float64(i-v.start) / musicgraph.SampleRate
			value := Envelope(t, v.duration) * Oscillate(v.waveform, v.frequency, t, noise)
			acc[i-seg.lo] += value * amplitude
		}
	}
}

// clamp rounds v to the nearest integer and limits it to the 16-bit range.
func clamp(v float64) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v))))
}
