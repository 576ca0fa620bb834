// Package config holds the settings shared by the command line tools.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/wanmine/musicgraph/encoder"
	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		// OutputDir is where rendered and encoded songs are written.
		OutputDir string
		// FFmpegPath is the encoder binary; empty looks up ffmpeg from PATH.
		FFmpegPath string
		// Workers is the number of render goroutines; 0 uses one per CPU.
		Workers int
		Encoder encoder.Config
		Server  ServerConfig
	}

	ServerConfig struct {
		Addr           string
		AllowedOrigins []string
		AutosavePath   string
		AutosaveDelay  time.Duration
	}
)

// FileName is the name of the user config file under the musicgraph
// directory of os.UserConfigDir.
const FileName = "config.yml"

//go:embed config.yml
var defaultConfigYaml []byte

func Default() Config {
	var c Config
	if err := yaml.UnmarshalStrict(defaultConfigYaml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// UserPath returns the location of the user config file.
func UserPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "musicgraph", FileName), nil
}

// Load returns the defaults overridden by the file at path. With an empty
// path the user config file is used if it exists.
func Load(path string) (Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		p, err := UserPath()
		if err != nil {
			return c, nil
		}
		path = p
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Default(), fmt.Errorf("could not parse config %v: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %v: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("outputdir is empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	if c.Server.AutosaveDelay < 0 {
		errs = append(errs, errors.New("autosavedelay must not be negative"))
	}
	if err := c.Encoder.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
