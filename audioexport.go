package musicgraph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// AudioBuffer holds mono 16-bit PCM samples at SampleRate.
type AudioBuffer []int16

// WavHeaderSize is the size of the header written in front of the samples.
const WavHeaderSize = 44

// Duration returns the length of the buffer in seconds.
func (b AudioBuffer) Duration() float64 {
	return float64(len(b)) / SampleRate
}

// Wav returns the buffer as a complete .wav file.
func (b AudioBuffer) Wav() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, WavHeaderSize+2*len(b)))
	if err := b.WriteWav(buf); err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw returns just the little-endian samples, without a header.
func (b AudioBuffer) Raw() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2*len(b)))
	if err := binary.Write(buf, binary.LittleEndian, []int16(b)); err != nil {
		return nil, fmt.Errorf("Raw failed: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteWav writes the .wav header followed by the samples to w.
func (b AudioBuffer) WriteWav(w io.Writer) error {
	if err := wavHeader(len(b), w); err != nil {
		return fmt.Errorf("could not write wav header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, []int16(b)); err != nil {
		return fmt.Errorf("could not write wav data: %w", err)
	}
	return nil
}

// wavHeader writes the canonical 44 byte header of a PCM .wav file with
// NumChannels channels of BitsPerSample bit samples at SampleRate. The fmt
// chunk carries no extension and there is no fact chunk.
func wavHeader(numSamples int, w io.Writer) error {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const bytesPerSample = BitsPerSample / 8
	dataSize := uint32(numSamples * NumChannels * bytesPerSample)
	fields := []any{
		[]byte("RIFF"),
		uint32(36) + dataSize, // chunk size
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		uint16(NumChannels),
		uint32(SampleRate),
		uint32(SampleRate * NumChannels * bytesPerSample), // avgBytesPerSec
		uint16(NumChannels * bytesPerSample),              // blockAlign
		uint16(BitsPerSample),
		[]byte("data"),
		dataSize,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}
