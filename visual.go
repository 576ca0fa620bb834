package musicgraph

import (
	"fmt"
	"strings"
)

// VisualString draws the notes of one instrument as a grid, highest pitch on
// top, with a label for every row and a "---" line between octaves:
//
//	B2: ---X--X--X
//	A#2:-X-X--XX--
//	...
func (g *Graph) VisualString(instrument Instrument) string {
	return g.draw(instrument, true)
}

// CompactVisualString is VisualString without labels and separators. Its
// output is accepted by Builder.Pattern.
func (g *Graph) CompactVisualString(instrument Instrument) string {
	return g.draw(instrument, false)
}

func (g *Graph) draw(instrument Instrument, labels bool) string {
	s := g.Copy()
	cells := make(map[Row][]bool)
	for _, n := range s.notes {
		if n.instrument != instrument {
			continue
		}
		r := n.Row()
		if cells[r] == nil {
			cells[r] = make([]bool, s.gridLength)
		}
		for p := n.position; p < n.EndPosition() && p < s.gridLength; p++ {
			cells[r][p] = true
		}
	}
	var sb strings.Builder
	for octave := s.maxOctaves - 1; octave >= 0; octave-- {
		for semitone := SemitonesPerOctave - 1; semitone >= 0; semitone-- {
			if labels {
				fmt.Fprintf(&sb, "%-4s", fmt.Sprintf("%s%d:", noteNames[semitone], octave))
			}
			row := cells[Row{Octave: octave, Semitone: semitone, Instrument: instrument}]
			for p := 0; p < s.gridLength; p++ {
				if row != nil && row[p] {
					sb.WriteByte('X')
				} else {
					sb.WriteByte('-')
				}
			}
			if octave > 0 || semitone > 0 || labels {
				sb.WriteByte('\n')
			}
		}
		if labels && octave > 0 {
			sb.WriteString("---\n")
		}
	}
	return sb.String()
}
