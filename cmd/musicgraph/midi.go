package main

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/gomidi"
	"gopkg.in/yaml.v3"
)

func (a *app) midiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "midi [path ...]",
		Short: "Convert graphs into Standard MIDI Files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.each(args, graphExtensions, func(path string) error {
				g, err := readGraphFile(path)
				if err != nil {
					return err
				}
				var b bytes.Buffer
				if err := gomidi.Write(&b, g); err != nil {
					return err
				}
				return a.output(baseName(path)+".mid", b.Bytes())
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var octaves int
	cmd := &cobra.Command{
		Use:   "import [path ...]",
		Short: "Convert Standard MIDI Files into .yml graphs",
		Long:  "Convert Standard MIDI Files into .yml graphs. Note times are quantized to\nsixteenth notes; notes that do not fit the grid are skipped with a warning.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.each(args, []string{".mid", ".midi"}, func(path string) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				g, skipped, err := gomidi.Read(f, octaves)
				if err != nil {
					return err
				}
				if skipped > 0 {
					a.logger.Warn("skipped notes that do not fit the grid", "path", path, "skipped", skipped)
				}
				b, err := yaml.Marshal(g)
				if err != nil {
					return err
				}
				return a.output(baseName(path)+".yml", b)
			})
		},
	}
	cmd.Flags().IntVar(&octaves, "octaves", musicgraph.DefaultMaxOctaves, "number of octaves in the imported grid")
	return cmd
}
