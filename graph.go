package musicgraph

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"sync"

	"golang.org/x/exp/slices"
)

// Graph is a composition: notes placed on a grid of gridLength sixteenth-note
// spaces and maxOctaves*12 pitch rows per instrument, played at tempo BPM.
//
// Graph is safe for concurrent use. Every mutation keeps the invariants: all
// notes fit the octaves and the grid, and no two notes on the same row
// overlap. Renderers should work on a Copy, never on a Graph that is still
// being edited.
type Graph struct {
	mu         sync.RWMutex
	notes      []Note
	tempo      int
	maxOctaves int
	gridLength int
}

const (
	MinTempo = 20
	MaxTempo = 300

	DefaultMaxOctaves = 3
	DefaultTempo      = 120
	DefaultGridLength = 32
)

// NewGraph returns an empty graph. It fails if maxOctaves or gridLength is
// less than 1 or tempo is outside [MinTempo, MaxTempo].
func NewGraph(maxOctaves, tempo, gridLength int) (*Graph, error) {
	if maxOctaves < 1 {
		return nil, &ValidationError{Field: "maxOctaves", Value: maxOctaves, Reason: "must be at least 1"}
	}
	if err := validateTempo(tempo); err != nil {
		return nil, err
	}
	if err := validateGridLength(gridLength); err != nil {
		return nil, err
	}
	return &Graph{tempo: tempo, maxOctaves: maxOctaves, gridLength: gridLength}, nil
}

// DefaultGraph returns an empty graph with 3 octaves, 120 BPM and 32 grid
// spaces.
func DefaultGraph() *Graph {
	return &Graph{tempo: DefaultTempo, maxOctaves: DefaultMaxOctaves, gridLength: DefaultGridLength}
}

func validateTempo(bpm int) error {
	if bpm < MinTempo || bpm > MaxTempo {
		return &ValidationError{Field: "tempo", Value: bpm, Reason: "must be between 20 and 300 BPM"}
	}
	return nil
}

func validateGridLength(length int) error {
	if length < 1 {
		return &ValidationError{Field: "gridLength", Value: length, Reason: "must be at least 1"}
	}
	return nil
}

// Copy returns a deep copy of the graph, taken atomically with respect to
// concurrent mutations.
func (g *Graph) Copy() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return &Graph{
		notes:      slices.Clone(g.notes),
		tempo:      g.tempo,
		maxOctaves: g.maxOctaves,
		gridLength: g.gridLength,
	}
}

// Replace sets the contents of g to a copy of other.
func (g *Graph) Replace(other *Graph) {
	c := other.Copy()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notes, g.tempo, g.maxOctaves, g.gridLength = c.notes, c.tempo, c.maxOctaves, c.gridLength
}

// CheckNote returns nil if n could be added to the graph, or the reason it
// would be rejected: ErrOctaveOutOfRange, ErrBeyondGrid or ErrOverlap.
func (g *Graph) CheckNote(n Note) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.check(n)
}

func (g *Graph) check(n Note) error {
	if n.octave >= g.maxOctaves {
		return ErrOctaveOutOfRange
	}
	if n.EndPosition() > g.gridLength {
		return ErrBeyondGrid
	}
	if slices.ContainsFunc(g.notes, n.Overlaps) {
		return ErrOverlap
	}
	return nil
}

// AddNote adds n and returns true, or returns false without changing the
// graph if n does not fit the octaves or the grid, or overlaps a note on the
// same row.
func (g *Graph) AddNote(n Note) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.check(n) != nil {
		return false
	}
	g.notes = append(g.notes, n)
	return true
}

// RemoveNote removes the note equal to n and reports whether there was one.
func (g *Graph) RemoveNote(n Note) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.notes, n)
	if i < 0 {
		return false
	}
	g.notes = slices.Delete(g.notes, i, i+1)
	return true
}

// RemoveNoteAt removes the note that starts exactly at position on the given
// row, whatever its length.
func (g *Graph) RemoveNoteAt(position, octave, semitone int, instrument Instrument) bool {
	row := Row{Octave: octave, Semitone: semitone, Instrument: instrument}
	g.mu.Lock()
	defer g.mu.Unlock()
	l := len(g.notes)
	g.notes = slices.DeleteFunc(g.notes, func(n Note) bool {
		return n.position == position && n.Row() == row
	})
	return len(g.notes) < l
}

// Clear removes all notes. Tempo, grid length and octaves are kept.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notes = nil
}

func (g *Graph) Tempo() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tempo
}

// SetTempo changes the tempo. Notes stay where they are on the grid; only
// their timing changes.
func (g *Graph) SetTempo(bpm int) error {
	if err := validateTempo(bpm); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tempo = bpm
	return nil
}

func (g *Graph) GridLength() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gridLength
}

// SetGridLength resizes the grid. When the grid shrinks, every note that
// would end beyond the new length is removed.
func (g *Graph) SetGridLength(length int) error {
	if err := validateGridLength(length); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gridLength = length
	g.notes = slices.DeleteFunc(g.notes, func(n Note) bool { return n.EndPosition() > length })
	return nil
}

func (g *Graph) MaxOctaves() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.maxOctaves
}

// TotalRows is the number of pitch rows per instrument.
func (g *Graph) TotalRows() int {
	return g.MaxOctaves() * SemitonesPerOctave
}

// Len returns the number of notes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.notes)
}

// Notes returns a copy of the notes in insertion order.
func (g *Graph) Notes() []Note {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.notes)
}

func (g *Graph) filter(keep func(Note) bool) []Note {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var ret []Note
	for _, n := range g.notes {
		if keep(n) {
			ret = append(ret, n)
		}
	}
	return ret
}

func (g *Graph) NotesForInstrument(instrument Instrument) []Note {
	return g.filter(func(n Note) bool { return n.instrument == instrument })
}

// NotesAtPosition returns the notes sounding at grid space pos.
func (g *Graph) NotesAtPosition(pos int) []Note {
	return g.filter(func(n Note) bool { return n.Contains(pos) })
}

// NotesStartingAt returns the notes whose first grid space is pos.
func (g *Graph) NotesStartingAt(pos int) []Note {
	return g.filter(func(n Note) bool { return n.position == pos })
}

// HasNotesAfter reports whether any note ends after pos.
func (g *Graph) HasNotesAfter(pos int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.ContainsFunc(g.notes, func(n Note) bool { return pos < n.EndPosition() })
}

// GridSpaceDuration returns the length of one grid space, a sixteenth note,
// in seconds.
func (g *Graph) GridSpaceDuration() float64 {
	return gridSpaceDuration(g.Tempo())
}

func gridSpaceDuration(tempo int) float64 {
	return 60 / float64(tempo) / 4
}

// TotalDuration returns the length of the composition in seconds: up to the
// end of the last note, or the whole grid when there are no notes.
func (g *Graph) TotalDuration() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.notes) == 0 {
		return float64(g.gridLength) * gridSpaceDuration(g.tempo)
	}
	end := 0
	for _, n := range g.notes {
		end = max(end, n.EndPosition())
	}
	return float64(end) * gridSpaceDuration(g.tempo)
}

// Hash returns a content hash of the graph that does not depend on the order
// the notes were added in. Identical compositions hash identically, which
// makes it usable as a render seed and for de-duplicating rendered assets.
func (g *Graph) Hash() uint64 {
	g.mu.RLock()
	notes := slices.Clone(g.notes)
	header := []int{g.maxOctaves, g.tempo, g.gridLength}
	g.mu.RUnlock()
	sort.Slice(notes, func(i, j int) bool { return notes[i].less(notes[j]) })
	h := fnv.New64a()
	var buf [8]byte
	write := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	for _, v := range header {
		write(v)
	}
	for _, n := range notes {
		write(n.octave)
		write(n.semitone)
		write(n.position)
		write(n.length)
		write(int(n.instrument))
	}
	return h.Sum64()
}

func (n Note) less(o Note) bool {
	switch {
	case n.instrument != o.instrument:
		return n.instrument < o.instrument
	case n.octave != o.octave:
		return n.octave < o.octave
	case n.semitone != o.semitone:
		return n.semitone < o.semitone
	case n.position != o.position:
		return n.position < o.position
	}
	return n.length < o.length
}
