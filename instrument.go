package musicgraph

import (
	"fmt"
	"strings"
)

type (
	// Instrument is one of the fixed instruments a note can be played with.
	// The zero value is Piano.
	Instrument int

	// Waveform is the oscillator shape an instrument is synthesized with.
	Waveform int

	instrumentInfo struct {
		name          string
		baseFrequency float64
		waveform      Waveform
	}
)

const (
	Piano Instrument = iota
	Drum
	Strings
	Synth
	numInstruments
)

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
	Noise
)

// instrumentTable maps each instrument to its reference frequency (the
// frequency of A in octave 1) and oscillator.
var instrumentTable = [numInstruments]instrumentInfo{
	Piano:   {name: "Piano", baseFrequency: 440, waveform: Triangle},
	Drum:    {name: "Drum", baseFrequency: 200, waveform: Noise},
	Strings: {name: "Strings", baseFrequency: 440, waveform: Sawtooth},
	Synth:   {name: "Synth", baseFrequency: 440, waveform: Square},
}

var waveformNames = [...]string{"sine", "square", "triangle", "sawtooth", "noise"}

// Instruments returns all instruments in their canonical order.
func Instruments() []Instrument {
	return []Instrument{Piano, Drum, Strings, Synth}
}

func (i Instrument) Valid() bool {
	return i >= 0 && i < numInstruments
}

func (i Instrument) BaseFrequency() float64 {
	if !i.Valid() {
		return 0
	}
	return instrumentTable[i].baseFrequency
}

func (i Instrument) Waveform() Waveform {
	if !i.Valid() {
		return Sine
	}
	return instrumentTable[i].waveform
}

func (i Instrument) String() string {
	if !i.Valid() {
		return fmt.Sprintf("Instrument(%d)", int(i))
	}
	return instrumentTable[i].name
}

func (i Instrument) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("invalid instrument %d", int(i))
	}
	return []byte(i.String()), nil
}

func (i *Instrument) UnmarshalText(text []byte) error {
	v, err := ParseInstrument(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// ParseInstrument returns the instrument with the given name, ignoring case.
func ParseInstrument(name string) (Instrument, error) {
	for i, info := range instrumentTable {
		if strings.EqualFold(info.name, strings.TrimSpace(name)) {
			return Instrument(i), nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", name)
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}
