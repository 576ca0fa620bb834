package musicgraph

import (
	"fmt"
	"math"
)

type (
	// Note is a single sound event on the grid. Notes are values: they are
	// validated once by NewNote and never change afterwards, so moving or
	// resizing a note means removing the old one and adding a new one. Two
	// notes are equal (==) when all their fields match.
	Note struct {
		octave     int
		semitone   int
		position   int
		length     int
		instrument Instrument
	}

	// Row identifies a monophonic lane of the grid. Notes on the same row
	// may not overlap.
	Row struct {
		Octave     int
		Semitone   int
		Instrument Instrument
	}
)

const SemitonesPerOctave = 12

var noteNames = [SemitonesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NewNote validates the fields and returns the note. The octave upper bound
// depends on the graph and is checked when the note is added.
func NewNote(octave, semitone, position, length int, instrument Instrument) (Note, error) {
	if octave < 0 {
		return Note{}, &ValidationError{Field: "octave", Value: octave, Reason: "must be non-negative"}
	}
	if semitone < 0 || semitone >= SemitonesPerOctave {
		return Note{}, &ValidationError{Field: "semitone", Value: semitone, Reason: "must be between 0 and 11"}
	}
	if position < 0 {
		return Note{}, &ValidationError{Field: "position", Value: position, Reason: "must be non-negative"}
	}
	if length < 1 {
		return Note{}, &ValidationError{Field: "length", Value: length, Reason: "must be at least 1"}
	}
	if length > math.MaxInt-position {
		return Note{}, &ValidationError{Field: "length", Value: length, Reason: "end position overflows"}
	}
	if !instrument.Valid() {
		return Note{}, &ValidationError{Field: "instrument", Value: int(instrument), Reason: "unknown instrument"}
	}
	return Note{octave: octave, semitone: semitone, position: position, length: length, instrument: instrument}, nil
}

// MustNote is like NewNote but panics on invalid input. Meant for literals in
// tests and default songs.
func MustNote(octave, semitone, position, length int, instrument Instrument) Note {
	n, err := NewNote(octave, semitone, position, length, instrument)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Note) Octave() int            { return n.octave }
func (n Note) Semitone() int          { return n.semitone }
func (n Note) Position() int          { return n.position }
func (n Note) Length() int            { return n.length }
func (n Note) Instrument() Instrument { return n.instrument }

// EndPosition is the first grid space after the note.
func (n Note) EndPosition() int {
	return n.position + n.length
}

func (n Note) Row() Row {
	return Row{Octave: n.octave, Semitone: n.semitone, Instrument: n.instrument}
}

// Overlaps reports whether the notes are on the same row and their
// [position, end) intervals intersect.
func (n Note) Overlaps(other Note) bool {
	if n.Row() != other.Row() {
		return false
	}
	return n.position < other.EndPosition() && other.position < n.EndPosition()
}

// Contains reports whether the grid space pos is covered by the note.
func (n Note) Contains(pos int) bool {
	return n.position <= pos && pos < n.EndPosition()
}

// MIDINote is the MIDI key number of the note: octave 0 starts at C3 (48), so
// octave 1, semitone 9 is A4 (69).
func (n Note) MIDINote() int {
	return (n.octave+4)*SemitonesPerOctave + n.semitone
}

// Frequency returns the equal-tempered frequency of the note in Hz, scaled so
// that A in octave 1 sounds at the base frequency of the instrument.
func (n Note) Frequency() float64 {
	return n.instrument.BaseFrequency() * math.Pow(2, float64(n.MIDINote()-69)/12)
}

// Name returns the pitch class with sharps, e.g. "C#".
func (n Note) Name() string {
	return noteNames[n.semitone]
}

// FullName returns the pitch class and octave, e.g. "A#1".
func (n Note) FullName() string {
	return fmt.Sprintf("%s%d", noteNames[n.semitone], n.octave)
}

func (n Note) String() string {
	return fmt.Sprintf("%s@%d+%d %v (%.2f Hz)", n.FullName(), n.position, n.length, n.instrument, n.Frequency())
}
