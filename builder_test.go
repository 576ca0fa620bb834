package musicgraph_test

import (
	"errors"
	"testing"

	"github.com/wanmine/musicgraph"
)

func TestBuilder(t *testing.T) {
	g, err := musicgraph.NewBuilder().
		Tempo(100).
		GridLength(16).
		Note(1, musicgraph.A, 0).
		NoteLength(1, musicgraph.C, 2, 4).
		Instrument(musicgraph.Drum).
		Sequence(0, musicgraph.C, 0, 4, 4).
		NoteWith(2, musicgraph.G, 15, 1, musicgraph.Synth).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.Tempo() != 100 || g.GridLength() != 16 || g.MaxOctaves() != 3 {
		t.Fatalf("wrong header: %v %v %v", g.Tempo(), g.GridLength(), g.MaxOctaves())
	}
	if n := len(g.NotesForInstrument(musicgraph.Piano)); n != 2 {
		t.Fatalf("expected 2 piano notes, got %v", n)
	}
	drums := g.NotesForInstrument(musicgraph.Drum)
	if len(drums) != 4 || drums[3].Position() != 12 {
		t.Fatalf("wrong drum sequence: %v", drums)
	}
	if n := len(g.NotesForInstrument(musicgraph.Synth)); n != 1 {
		t.Fatalf("expected 1 synth note, got %v", n)
	}
}

func TestBuilderStopsAtFirstError(t *testing.T) {
	b := musicgraph.NewBuilder().
		Note(0, 0, 0).
		NoteLength(0, 0, 0, 2). // overlaps the first
		Note(0, 1, 0)
	_, err := b.Build()
	if !errors.Is(err, musicgraph.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	_, err = musicgraph.NewBuilder().Note(0, 12, 0).Build()
	var verr *musicgraph.ValidationError
	if !errors.As(err, &verr) || verr.Field != "semitone" {
		t.Fatalf("expected invalid semitone, got %v", err)
	}

	_, err = musicgraph.NewBuilder().Tempo(10).Note(0, 0, 0).Build()
	if !errors.As(err, &verr) || verr.Field != "tempo" {
		t.Fatalf("expected invalid tempo, got %v", err)
	}

	_, err = musicgraph.NewBuilderWith(0, 120, 32).Note(0, 0, 0).Build()
	if !errors.As(err, &verr) || verr.Field != "maxOctaves" {
		t.Fatalf("expected invalid maxOctaves, got %v", err)
	}

	_, err = musicgraph.NewBuilderWith(1, 120, 8).Note(1, 0, 0).Build()
	if !errors.Is(err, musicgraph.ErrOctaveOutOfRange) {
		t.Fatalf("expected ErrOctaveOutOfRange, got %v", err)
	}
}

func TestBuilderPattern(t *testing.T) {
	pattern := "" +
		"X---\n" + // B0
		"----\n" + // A#0
		"-xx-\n" // A0
	g, err := musicgraph.NewBuilderWith(1, 120, 4).Instrument(musicgraph.Synth).Pattern(pattern).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	notes := g.Notes()
	expected := []musicgraph.Note{
		musicgraph.MustNote(0, musicgraph.B, 0, 1, musicgraph.Synth),
		musicgraph.MustNote(0, musicgraph.A, 1, 1, musicgraph.Synth),
		musicgraph.MustNote(0, musicgraph.A, 2, 1, musicgraph.Synth),
	}
	if len(notes) != len(expected) {
		t.Fatalf("Pattern added %v, expected %v", notes, expected)
	}
	for i := range expected {
		if notes[i] != expected[i] {
			t.Fatalf("note %d: got %v, expected %v", i, notes[i], expected[i])
		}
	}
	// columns beyond the grid are ignored
	if _, err := musicgraph.NewBuilderWith(1, 120, 2).Pattern("--XX").Build(); err != nil {
		t.Fatalf("Pattern should ignore columns beyond the grid: %v", err)
	}
	// any character other than X counts as one empty column
	g, err = musicgraph.NewBuilderWith(1, 120, 4).Pattern("·•·X").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if notes := g.Notes(); len(notes) != 1 || notes[0] != musicgraph.MustNote(0, musicgraph.B, 3, 1, musicgraph.Piano) {
		t.Fatalf("non-ASCII filler shifted the columns: %v", notes)
	}
}

func TestBuilderCopyFromAndClear(t *testing.T) {
	src, _ := musicgraph.NewBuilder().Chord(1, 0, 4, musicgraph.C, musicgraph.E, musicgraph.G).Build()
	g, err := musicgraph.NewBuilder().CopyFrom(src).Build()
	if err != nil || g.Len() != 3 {
		t.Fatalf("CopyFrom: %v notes, err %v", g.Len(), err)
	}
	if _, err := musicgraph.NewBuilder().CopyFrom(src).CopyFrom(src).Build(); !errors.Is(err, musicgraph.ErrOverlap) {
		t.Fatalf("copying twice should overlap, got %v", err)
	}
	g, err = musicgraph.NewBuilder().CopyFrom(src).Clear().Note(0, 0, 0).Build()
	if err != nil || g.Len() != 1 {
		t.Fatalf("Clear: %v notes, err %v", g.Len(), err)
	}
}
