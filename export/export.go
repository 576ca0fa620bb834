// Package export renders graphs to files on disk and hands them to an encoder.
package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/encoder"
	"github.com/wanmine/musicgraph/synth"
)

type (
	// Exporter carries everything a render needs: where to write, how to
	// synthesize, how to encode and where to log.
	Exporter struct {
		Dir     string
		Mixer   synth.Mixer
		Encoder encoder.Encoder
		Config  encoder.Config
		Logger  *slog.Logger
	}

	// Result is delivered by RenderAsync.
	Result struct {
		Path string
		Err  error
	}
)

// SongFileName returns a unique file name for a song: spaces are replaced
// with underscores and a random UUID is appended.
func SongFileName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_") + "_" + uuid.NewString()
}

// HashFileName names a render after the content of the graph, so identical
// compositions map to the same file.
func HashFileName(g *musicgraph.Graph) string {
	return fmt.Sprintf("graph_%016x", g.Hash())
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// RenderFile synthesizes g and writes it to Dir/name.wav. The file appears
// atomically: it is written under a temporary name and renamed into place,
// and the temporary file is removed on any error or cancellation.
func (e *Exporter) RenderFile(ctx context.Context, g *musicgraph.Graph, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", &RenderError{Op: "name", Err: err}
	}
	buf, err := e.Mixer.Render(ctx, g)
	if err != nil {
		return "", &RenderError{Op: "synthesize", Err: err}
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", &RenderError{Op: "mkdir", Err: err}
	}
	f, err := os.CreateTemp(e.Dir, "."+name+"-*.wav.tmp")
	if err != nil {
		return "", &RenderError{Op: "create", Err: err}
	}
	tmp := f.Name()
	if err := writeWav(f, buf); err != nil {
		os.Remove(tmp)
		return "", &RenderError{Op: "write", Err: err}
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp)
		return "", &RenderError{Op: "write", Err: err}
	}
	path := filepath.Join(e.Dir, name+".wav")
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", &RenderError{Op: "rename", Err: err}
	}
	levels := synth.Analyze(buf)
	e.logger().InfoContext(ctx, "rendered", "path", path, "seconds", buf.Duration(), "peak", levels.Peak, "rms", levels.RMS)
	return path, nil
}

func writeWav(f *os.File, buf musicgraph.AudioBuffer) error {
	w := bufio.NewWriter(f)
	if err := buf.WriteWav(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Export renders g, encodes it and returns the path of the encoded file. The
// intermediate .wav is deleted whether encoding succeeds or not. If the
// encoded file already exists it is returned as is without rendering.
func (e *Exporter) Export(ctx context.Context, g *musicgraph.Graph, name string) (string, error) {
	if e.Encoder == nil {
		return "", errors.New("no encoder configured")
	}
	if err := validName(name); err != nil {
		return "", &RenderError{Op: "name", Err: err}
	}
	target := filepath.Join(e.Dir, name+"."+e.Config.Format)
	if _, err := os.Stat(target); err == nil {
		e.logger().InfoContext(ctx, "reusing existing export", "path", target)
		return target, nil
	}
	wav, err := e.RenderFile(ctx, g, name)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(wav); err != nil {
			e.logger().WarnContext(ctx, "could not remove rendered file", "path", wav, "err", err)
		}
	}()
	out, err := e.Encoder.Encode(ctx, wav, e.Config)
	if err != nil {
		return "", &EncodeError{Path: wav, Err: err}
	}
	return out, nil
}

// RenderAsync runs Export, or RenderFile if there is no Encoder, on a new
// goroutine. The graph is copied before RenderAsync returns, so later edits
// do not affect the render. The channel receives exactly one Result.
func (e *Exporter) RenderAsync(ctx context.Context, g *musicgraph.Graph, name string) <-chan Result {
	snapshot := g.Copy()
	ret := make(chan Result, 1)
	go func() {
		var r Result
		if e.Encoder != nil {
			r.Path, r.Err = e.Export(ctx, snapshot, name)
		} else {
			r.Path, r.Err = e.RenderFile(ctx, snapshot, name)
		}
		if r.Err != nil {
			e.logger().ErrorContext(ctx, "render failed", "name", name, "err", r.Err)
		}
		ret <- r
	}()
	return ret
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
