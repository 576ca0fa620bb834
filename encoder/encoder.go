// Package encoder converts rendered .wav files into compressed assets with an
// external encoder.
package encoder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/wanmine/musicgraph"
)

type (
	// Encoder converts the .wav file at input according to cfg and returns
	// the path of the file it produced. The input file is left in place.
	Encoder interface {
		Encode(ctx context.Context, input string, cfg Config) (string, error)
	}

	// Config describes the compressed output. Channels and SampleRate must
	// match the rendered audio.
	Config struct {
		Codec      string `yaml:"codec"`
		Format     string `yaml:"format"`
		Bitrate    int    `yaml:"bitrate"`
		Channels   int    `yaml:"channels"`
		SampleRate int    `yaml:"samplerate"`
	}
)

// DefaultConfig encodes 128 kbit/s Vorbis into an .ogg container.
func DefaultConfig() Config {
	return Config{
		Codec:      "libvorbis",
		Format:     "ogg",
		Bitrate:    128000,
		Channels:   musicgraph.NumChannels,
		SampleRate: musicgraph.SampleRate,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Codec == "" {
		errs = append(errs, errors.New("codec is empty"))
	}
	if c.Format == "" {
		errs = append(errs, errors.New("format is empty"))
	}
	if c.Bitrate <= 0 {
		errs = append(errs, errors.New("bitrate must be positive"))
	}
	if c.Channels != musicgraph.NumChannels {
		errs = append(errs, errors.New("channels must match the rendered audio"))
	}
	if c.SampleRate != musicgraph.SampleRate {
		errs = append(errs, errors.New("sample rate must match the rendered audio"))
	}
	return errors.Join(errs...)
}

// OutputPath returns input with its extension replaced by the format.
func OutputPath(input string, cfg Config) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + cfg.Format
}
