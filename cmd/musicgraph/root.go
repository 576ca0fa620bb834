package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/config"
	"github.com/wanmine/musicgraph/export"
	"github.com/wanmine/musicgraph/synth"
	"github.com/wanmine/musicgraph/version"
)

// app holds the state shared by all commands.
type app struct {
	configPath string
	verbose    bool
	outDir     string

	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

var graphExtensions = []string{".yml", ".yaml", ".json"}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "musicgraph",
		Short:         "Compose songs on a note grid and render them to audio",
		Long:          "musicgraph reads .yml or .json note grids and renders them to 16-bit mono .wav files,\nencodes them with ffmpeg, converts them to and from MIDI, or serves them over HTTP for editing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $UserConfigDir/musicgraph/config.yml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	root.PersistentFlags().StringVarP(&a.outDir, "out", "o", "", "output directory, created if needed (default from config)")
	root.AddCommand(
		a.renderCmd(),
		a.exportCmd(),
		a.midiCmd(),
		a.importCmd(),
		a.showCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.outDir != "" {
		cfg.OutputDir = a.outDir
	}
	a.cfg = cfg
	a.logger.Debug("loaded config", "outputdir", cfg.OutputDir, "workers", cfg.Workers)
	return nil
}

func (a *app) exporter() *export.Exporter {
	return &export.Exporter{
		Dir:    a.cfg.OutputDir,
		Mixer:  synth.Mixer{Workers: a.cfg.Workers},
		Config: a.cfg.Encoder,
		Logger: a.logger,
	}
}

func readGraphFile(path string) (*musicgraph.Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", path, err)
	}
	return musicgraph.ReadGraph(b)
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// each calls process for every file argument. Directories are expanded to
// the files inside them with one of the given extensions. Failures are
// reported and counted but do not stop the loop.
func (a *app) each(args []string, extensions []string, process func(path string) error) error {
	var files []string
	failed := 0
	for _, param := range args {
		info, err := os.Stat(param)
		if err != nil || !info.IsDir() {
			files = append(files, param)
			continue
		}
		for _, ext := range extensions {
			matches, err := filepath.Glob(filepath.Join(param, "*"+ext))
			if err != nil {
				a.logger.Error("could not glob path", "path", param, "err", err)
				failed++
				continue
			}
			files = append(files, matches...)
		}
	}
	for _, file := range files {
		if err := process(file); err != nil {
			a.logger.Error("could not process file", "path", file, "err", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// output writes contents to name in the output directory and prints the
// path. Unchanged files are left untouched.
func (a *app) output(name string, contents []byte) error {
	dir := a.cfg.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if original, err := os.ReadFile(path); err == nil && bytes.Equal(original, contents) {
		a.logger.Debug("file unchanged", "path", path)
		fmt.Fprintln(a.stdout, path)
		return nil
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", path, err)
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}
