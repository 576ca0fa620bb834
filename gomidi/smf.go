// Package gomidi converts graphs to and from Standard MIDI Files.
package gomidi

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/wanmine/musicgraph"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	TicksPerQuarter   = 960
	TicksPerGridSpace = TicksPerQuarter / 4
	Velocity          = 100
)

// Channel returns the MIDI channel an instrument is written to. Drums use the
// General MIDI percussion channel.
func Channel(i musicgraph.Instrument) uint8 {
	switch i {
	case musicgraph.Drum:
		return 9
	case musicgraph.Strings:
		return 1
	case musicgraph.Synth:
		return 2
	}
	return 0
}

func instrumentForChannel(ch uint8) musicgraph.Instrument {
	for _, i := range musicgraph.Instruments() {
		if Channel(i) == ch {
			return i
		}
	}
	return musicgraph.Piano
}

type event struct {
	tick uint32
	on   bool
	key  uint8
}

// SMF converts g into a format 1 MIDI file: a tempo track followed by one
// track per instrument that has notes. Every track lasts the whole grid.
func SMF(g *musicgraph.Graph) (*smf.SMF, error) {
	s := g.Copy()
	gridEnd := uint32(s.GridLength() * TicksPerGridSpace)
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(float64(s.Tempo())))
	tempo.Close(gridEnd)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("could not add tempo track: %w", err)
	}
	for _, instr := range musicgraph.Instruments() {
		notes := s.NotesForInstrument(instr)
		if len(notes) == 0 {
			continue
		}
		events := make([]event, 0, 2*len(notes))
		for _, n := range notes {
			key := n.MIDINote()
			if key > 127 {
				return nil, fmt.Errorf("note %v is above the MIDI key range", n)
			}
			events = append(events,
				event{tick: uint32(n.Position() * TicksPerGridSpace), on: true, key: uint8(key)},
				event{tick: uint32(n.EndPosition() * TicksPerGridSpace), on: false, key: uint8(key)})
		}
		// note offs first, so a note ending where another starts is released
		// before the next one is struck
		sort.Slice(events, func(i, j int) bool {
			a, b := events[i], events[j]
			if a.tick != b.tick {
				return a.tick < b.tick
			}
			if a.on != b.on {
				return !a.on
			}
			return a.key < b.key
		})
		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(instr.String()))
		ch := Channel(instr)
		var last uint32
		for _, e := range events {
			if e.on {
				track.Add(e.tick-last, midi.NoteOn(ch, e.key, Velocity))
			} else {
				track.Add(e.tick-last, midi.NoteOff(ch, e.key))
			}
			last = e.tick
		}
		track.Close(gridEnd - last)
		if err := sm.Add(track); err != nil {
			return nil, fmt.Errorf("could not add %v track: %w", instr, err)
		}
	}
	return sm, nil
}

// Write writes g to w as a MIDI file.
func Write(w io.Writer, g *musicgraph.Graph) error {
	sm, err := SMF(g)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("could not write MIDI file: %w", err)
	}
	return nil
}

// Read converts a MIDI file into a graph with maxOctaves octaves. Note times
// are quantized to grid spaces; channels map back to instruments as written
// by SMF, and any other channel becomes Piano. Notes that do not fit the
// graph (out of the octave range or overlapping an earlier note on the same
// row) are skipped; their count is returned.
func Read(r io.Reader, maxOctaves int) (*musicgraph.Graph, int, error) {
	sm, err := smf.ReadFrom(r)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read MIDI file: %w", err)
	}
	ticks, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok || ticks < 4 {
		return nil, 0, fmt.Errorf("unsupported MIDI time format %v", sm.TimeFormat)
	}
	perSpace := float64(ticks) / 4
	tempo := musicgraph.DefaultTempo
	if changes := sm.TempoChanges(); len(changes) > 0 {
		tempo = int(math.Round(changes[0].BPM))
		tempo = max(musicgraph.MinTempo, min(musicgraph.MaxTempo, tempo))
	}
	type pending struct{ channel, key uint8 }
	type span struct {
		pending
		start, end int64
	}
	var spans []span
	var end int64
	for _, track := range sm.Tracks {
		var abs int64
		started := map[pending]int64{}
		for _, ev := range track {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
				started[pending{ch, key}] = abs
			case ev.Message.GetNoteOn(&ch, &key, &vel), ev.Message.GetNoteOff(&ch, &key, &vel):
				p := pending{ch, key}
				if start, ok := started[p]; ok {
					spans = append(spans, span{pending: p, start: start, end: abs})
					delete(started, p)
				}
			}
		}
		end = max(end, abs)
	}
	gridLength := max(1, int(math.Ceil(float64(end)/perSpace)))
	skipped := 0
	notes := make([]musicgraph.Note, 0, len(spans))
	for _, s := range spans {
		pos := int(math.Round(float64(s.start) / perSpace))
		length := max(1, int(math.Round(float64(s.end)/perSpace))-pos)
		n, err := musicgraph.NewNote(int(s.key)/12-4, int(s.key)%12, pos, length, instrumentForChannel(s.channel))
		if err != nil {
			skipped++
			continue
		}
		gridLength = max(gridLength, n.EndPosition())
		notes = append(notes, n)
	}
	g, err := musicgraph.NewGraph(maxOctaves, tempo, gridLength)
	if err != nil {
		return nil, 0, err
	}
	for _, n := range notes {
		if !g.AddNote(n) {
			skipped++
		}
	}
	return g, skipped, nil
}
