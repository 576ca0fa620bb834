package musicgraph

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	// graphData is the on-disk form of a Graph, used for both .json and .yml
	// files.
	graphData struct {
		MaxOctaves int        `yaml:"maxoctaves"`
		Tempo      int        `yaml:"tempo"`
		GridLength int        `yaml:"gridlength"`
		Notes      []noteData `yaml:"notes"`
	}

	noteData struct {
		Octave     int    `yaml:"octave"`
		Semitone   int    `yaml:"semitone"`
		Position   int    `yaml:"position"`
		Length     int    `yaml:"length"`
		Instrument string `yaml:"instrument"`
	}
)

func (n Note) data() noteData {
	return noteData{
		Octave:     n.octave,
		Semitone:   n.semitone,
		Position:   n.position,
		Length:     n.length,
		Instrument: n.instrument.String(),
	}
}

func (d noteData) note() (Note, error) {
	instr, err := ParseInstrument(d.Instrument)
	if err != nil {
		return Note{}, err
	}
	return NewNote(d.Octave, d.Semitone, d.Position, d.Length, instr)
}

func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.data())
}

func (n *Note) UnmarshalJSON(b []byte) error {
	var d noteData
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	v, err := d.note()
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n Note) MarshalYAML() (interface{}, error) {
	return n.data(), nil
}

func (n *Note) UnmarshalYAML(value *yaml.Node) error {
	var d noteData
	if err := value.Decode(&d); err != nil {
		return err
	}
	v, err := d.note()
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (g *Graph) data() graphData {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d := graphData{
		MaxOctaves: g.maxOctaves,
		Tempo:      g.tempo,
		GridLength: g.gridLength,
		Notes:      make([]noteData, len(g.notes)),
	}
	for i, n := range g.notes {
		d.Notes[i] = n.data()
	}
	return d
}

// load replaces the contents of g with the decoded data. Missing header
// fields take their defaults; every note is validated and added as if
// through AddNote, and the first rejected note fails the whole load.
func (g *Graph) load(d graphData) error {
	if d.MaxOctaves == 0 {
		d.MaxOctaves = DefaultMaxOctaves
	}
	if d.Tempo == 0 {
		d.Tempo = DefaultTempo
	}
	if d.GridLength == 0 {
		d.GridLength = DefaultGridLength
	}
	ng, err := NewGraph(d.MaxOctaves, d.Tempo, d.GridLength)
	if err != nil {
		return err
	}
	for i, nd := range d.Notes {
		n, err := nd.note()
		if err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		if err := ng.check(n); err != nil {
			return fmt.Errorf("note %d (%v): %w", i, n, err)
		}
		ng.notes = append(ng.notes, n)
	}
	g.Replace(ng)
	return nil
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.data())
}

func (g *Graph) UnmarshalJSON(b []byte) error {
	var d graphData
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	return g.load(d)
}

func (g *Graph) MarshalYAML() (interface{}, error) {
	return g.data(), nil
}

func (g *Graph) UnmarshalYAML(value *yaml.Node) error {
	var d graphData
	if err := value.Decode(&d); err != nil {
		return err
	}
	return g.load(d)
}

// ReadGraph decodes a graph from .json or .yml contents, trying JSON first.
func ReadGraph(b []byte) (*Graph, error) {
	g := new(Graph)
	if errJSON := json.Unmarshal(b, g); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, g); errYaml != nil {
			return nil, fmt.Errorf("the graph could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if g.Tempo() == 0 {
		return nil, errors.New("no graph found in input")
	}
	return g, nil
}
