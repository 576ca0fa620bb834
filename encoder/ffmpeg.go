package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg encodes by running an ffmpeg binary.
type FFmpeg struct {
	// Path of the ffmpeg executable.
	Path   string
	Logger *slog.Logger
}

// Locate returns path if it names an existing file, or else looks up ffmpeg
// in PATH.
func Locate(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("ffmpeg not found: %w", err)
		}
		return path, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	return p, nil
}

// Args returns the ffmpeg command line arguments for encoding input into
// output.
func Args(input, output string, cfg Config) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-i", input,
		"-c:a", cfg.Codec,
		"-b:a", strconv.Itoa(cfg.Bitrate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		output,
	}
}

func (f FFmpeg) Encode(ctx context.Context, input string, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid encoder config: %w", err)
	}
	if f.Path == "" {
		return "", errors.New("ffmpeg path not set")
	}
	output := OutputPath(input, cfg)
	if output == input {
		return "", fmt.Errorf("output would overwrite the input %v", input)
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	args := Args(input, output, cfg)
	logger.DebugContext(ctx, "running ffmpeg", "path", f.Path, "args", args)
	cmd := exec.CommandContext(ctx, f.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(output)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("ffmpeg failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}
	logger.InfoContext(ctx, "encoded", "input", input, "output", output, "codec", cfg.Codec)
	return output, nil
}
