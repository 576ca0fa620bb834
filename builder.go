package musicgraph

import (
	"fmt"
	"strings"
)

// Semitone names for use with the Builder.
const (
	C = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// Builder assembles a Graph with a fluent API:
//
//	g, err := musicgraph.NewBuilder().
//		Tempo(100).
//		Instrument(musicgraph.Strings).
//		Chord(1, 0, 4, musicgraph.C, musicgraph.E, musicgraph.G).
//		Build()
//
// The first invalid note, rejected note or invalid setting is remembered and
// returned by Build; calls after it are ignored.
type Builder struct {
	graph      *Graph
	instrument Instrument
	err        error
}

// NewBuilder starts from DefaultGraph with the Piano as current instrument.
func NewBuilder() *Builder {
	return &Builder{graph: DefaultGraph()}
}

func NewBuilderWith(maxOctaves, tempo, gridLength int) *Builder {
	g, err := NewGraph(maxOctaves, tempo, gridLength)
	return &Builder{graph: g, err: err}
}

func (b *Builder) Tempo(bpm int) *Builder {
	if b.err == nil {
		b.err = b.graph.SetTempo(bpm)
	}
	return b
}

func (b *Builder) GridLength(length int) *Builder {
	if b.err == nil {
		b.err = b.graph.SetGridLength(length)
	}
	return b
}

// Instrument sets the instrument used by Note, NoteLength, Pattern, Sequence
// and Chord.
func (b *Builder) Instrument(instrument Instrument) *Builder {
	b.instrument = instrument
	return b
}

// Note adds a note one grid space long.
func (b *Builder) Note(octave, semitone, position int) *Builder {
	return b.NoteWith(octave, semitone, position, 1, b.instrument)
}

func (b *Builder) NoteLength(octave, semitone, position, length int) *Builder {
	return b.NoteWith(octave, semitone, position, length, b.instrument)
}

func (b *Builder) NoteWith(octave, semitone, position, length int, instrument Instrument) *Builder {
	if b.err != nil {
		return b
	}
	n, err := NewNote(octave, semitone, position, length, instrument)
	if err != nil {
		b.err = err
		return b
	}
	b.add(n)
	return b
}

func (b *Builder) add(n Note) {
	if err := b.graph.CheckNote(n); err != nil {
		b.err = fmt.Errorf("note %v rejected: %w", n, err)
		return
	}
	b.graph.AddNote(n)
}

// Pattern adds one grid space long notes from a textual grid. Each line is a
// row, top line being B of the highest octave and going down one semitone per
// line, just like VisualString draws them. 'X' or 'x' marks a note, anything
// else is empty. Lines beyond the rows of the graph and columns beyond the grid
// are ignored.
func (b *Builder) Pattern(pattern string) *Builder {
	if b.err != nil {
		return b
	}
	maxOctaves, gridLength := b.graph.MaxOctaves(), b.graph.GridLength()
	lines := strings.Split(pattern, "\n")
	for row := 0; row < len(lines) && row < maxOctaves*SemitonesPerOctave; row++ {
		octave := maxOctaves - 1 - row/SemitonesPerOctave
		semitone := SemitonesPerOctave - 1 - row%SemitonesPerOctave
		for pos, c := range []rune(lines[row]) {
			if pos >= gridLength {
				break
			}
			if c == 'X' || c == 'x' {
				b.Note(octave, semitone, pos)
			}
		}
	}
	return b
}

// PatternWith is Pattern with a specific instrument; the current instrument
// is left unchanged.
func (b *Builder) PatternWith(pattern string, instrument Instrument) *Builder {
	prev := b.instrument
	b.instrument = instrument
	b.Pattern(pattern)
	b.instrument = prev
	return b
}

// Sequence adds count notes of one grid space, starting at start and spaced
// spacing grid spaces apart.
func (b *Builder) Sequence(octave, semitone, start, spacing, count int) *Builder {
	for i := 0; i < count; i++ {
		b.Note(octave, semitone, start+i*spacing)
	}
	return b
}

// Chord adds notes of the same octave, position and length for each of the
// semitones.
func (b *Builder) Chord(octave, position, length int, semitones ...int) *Builder {
	for _, s := range semitones {
		b.NoteLength(octave, s, position, length)
	}
	return b
}

// CopyFrom adds all notes of other.
func (b *Builder) CopyFrom(other *Graph) *Builder {
	for _, n := range other.Notes() {
		if b.err != nil {
			break
		}
		b.add(n)
	}
	return b
}

func (b *Builder) Clear() *Builder {
	if b.err == nil {
		b.graph.Clear()
	}
	return b
}

// Build returns the graph, or the first error encountered while building it.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.graph, nil
}
