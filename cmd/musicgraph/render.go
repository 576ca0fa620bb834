package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wanmine/musicgraph/encoder"
	"github.com/wanmine/musicgraph/export"
)

func (a *app) renderCmd() *cobra.Command {
	var hashNames bool
	cmd := &cobra.Command{
		Use:   "render [path ...]",
		Short: "Render graphs into .wav files",
		Long:  "Render .yml or .json graphs into .wav files in the output directory.\nDirectories are searched for graph files.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := a.exporter()
			return a.each(args, graphExtensions, func(path string) error {
				g, err := readGraphFile(path)
				if err != nil {
					return err
				}
				name := baseName(path)
				if hashNames {
					name = export.HashFileName(g)
				}
				out, err := e.RenderFile(cmd.Context(), g, name)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&hashNames, "hash-names", false, "name each .wav after the content hash of its graph")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var hashNames, unique bool
	var ffmpeg string
	cmd := &cobra.Command{
		Use:   "export [path ...]",
		Short: "Render graphs and encode them with ffmpeg",
		Long:  "Render .yml or .json graphs and encode them with ffmpeg according to the encoder\nsection of the config. Existing outputs with the same name are reused.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ffmpeg == "" {
				ffmpeg = a.cfg.FFmpegPath
			}
			path, err := encoder.Locate(ffmpeg)
			if err != nil {
				return err
			}
			e := a.exporter()
			e.Encoder = encoder.FFmpeg{Path: path, Logger: a.logger}
			return a.each(args, graphExtensions, func(path string) error {
				g, err := readGraphFile(path)
				if err != nil {
					return err
				}
				name := baseName(path)
				switch {
				case hashNames:
					name = export.HashFileName(g)
				case unique:
					name = export.SongFileName(name)
				}
				out, err := e.Export(cmd.Context(), g, name)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&hashNames, "hash-names", false, "name each output after the content hash of its graph")
	cmd.Flags().BoolVar(&unique, "unique", false, "append a random UUID to each output name")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", "", "ffmpeg executable (default from config, then PATH)")
	cmd.MarkFlagsMutuallyExclusive("hash-names", "unique")
	return cmd
}
