package musicgraph

import (
	"errors"
	"fmt"
)

// ValidationError reports a value outside the range allowed for a note or a
// graph parameter.
type ValidationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// Reasons returned by Graph.CheckNote when a note cannot be added.
var (
	ErrOctaveOutOfRange = errors.New("octave exceeds the octaves of the graph")
	ErrBeyondGrid       = errors.New("note ends beyond the grid length")
	ErrOverlap          = errors.New("note overlaps another note on the same row")
)
