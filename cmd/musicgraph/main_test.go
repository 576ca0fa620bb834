package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/server"
)

const testGraphFile = "../../testdata/graph.yml"

// run executes the command line with a config that writes into out.
func run(t *testing.T, out string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(cfg, []byte(fmt.Sprintf("outputdir: %q\n", out)), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func readTestGraph(t *testing.T) *musicgraph.Graph {
	t.Helper()
	g, err := readGraphFile(testGraphFile)
	if err != nil {
		t.Fatalf("readGraphFile failed: %v", err)
	}
	return g
}

func TestRender(t *testing.T) {
	out := t.TempDir()
	stdout, err := run(t, out, "render", testGraphFile)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	path := filepath.Join(out, "graph.wav")
	if strings.TrimSpace(stdout) != path {
		t.Fatalf("render printed %q, expected %q", stdout, path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if want := musicgraph.NumSamples(readTestGraph(t).TotalDuration()); len(buf.Data) != want {
		t.Fatalf("got %v samples, expected %v", len(buf.Data), want)
	}
}

func TestRenderDirectoryAndFailures(t *testing.T) {
	out := t.TempDir()
	_, err := run(t, out, "render", "--hash-names", "../../testdata", "missing.yml")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 files failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two renders, got %v", entries)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "graph_") || filepath.Ext(e.Name()) != ".wav" {
			t.Fatalf("unexpected file %v", e.Name())
		}
	}
}

func TestMidiRoundTrip(t *testing.T) {
	out := t.TempDir()
	if _, err := run(t, out, "midi", testGraphFile); err != nil {
		t.Fatalf("midi failed: %v", err)
	}
	imported := t.TempDir()
	if _, err := run(t, imported, "import", "--octaves", "2", filepath.Join(out, "graph.mid")); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	g, err := readGraphFile(filepath.Join(imported, "graph.yml"))
	if err != nil {
		t.Fatalf("reading the imported graph failed: %v", err)
	}
	if want := readTestGraph(t); g.Hash() != want.Hash() {
		t.Fatalf("imported graph differs:\n%v\nexpected\n%v", g.Notes(), want.Notes())
	}
}

func TestShow(t *testing.T) {
	stdout, err := run(t, t.TempDir(), "show", "--grid", testGraphFile)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{
		"Graph\n=====\n",
		"tempo 90 BPM, 16 grid spaces of 0.167 s, 2 octaves",
		"4 notes",
		"Piano (triangle, 440 Hz): 2 notes\n  A1\n",
		"Synth (square, 440 Hz): 0 notes",
		"  ---",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("show output does not contain %q:\n%v", want, stdout)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, err := run(t, t.TempDir(), "version")
	if err != nil || strings.TrimSpace(stdout) == "" {
		t.Fatalf("version failed: %q, %v", stdout, err)
	}
}

func TestBadConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yml"), "version"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil {
		t.Fatalf("a missing config file should fail")
	}
}

func TestServe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	a := &app{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	g := musicgraph.DefaultGraph()
	s := server.New(g, server.Options{AutosavePath: path, AutosaveDelay: time.Hour})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, s, ln, true) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/graph/notes", "application/json",
		strings.NewReader(`{"octave": 0, "semitone": 4, "position": 1, "length": 2, "instrument": "Strings"}`))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %v", resp.Status)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("graph was not saved on shutdown: %v", err)
	}
	saved, err := musicgraph.ReadGraph(b)
	if err != nil || saved.Len() != 1 {
		t.Fatalf("unexpected saved graph %s: %v", b, err)
	}
}
