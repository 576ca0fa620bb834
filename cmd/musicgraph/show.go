package main

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/spf13/cobra"
	"github.com/wanmine/musicgraph"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.txt
var templateFS embed.FS

type (
	summary struct {
		Name              string
		Tempo             int
		GridLength        int
		MaxOctaves        int
		GridSpaceDuration float64
		TotalDuration     float64
		Samples           int
		NoteCount         int
		Instruments       []instrumentSummary
	}

	instrumentSummary struct {
		Name      string
		Waveform  string
		Frequency float64
		Notes     []musicgraph.Note
		Grid      string
	}
)

func newSummary(name string, g *musicgraph.Graph, grid bool) summary {
	s := g.Copy()
	ret := summary{
		Name:              name,
		Tempo:             s.Tempo(),
		GridLength:        s.GridLength(),
		MaxOctaves:        s.MaxOctaves(),
		GridSpaceDuration: s.GridSpaceDuration(),
		TotalDuration:     s.TotalDuration(),
		Samples:           musicgraph.NumSamples(s.TotalDuration()),
		NoteCount:         s.Len(),
	}
	for _, instr := range musicgraph.Instruments() {
		is := instrumentSummary{
			Name:      instr.String(),
			Waveform:  instr.Waveform().String(),
			Frequency: instr.BaseFrequency(),
			Notes:     s.NotesForInstrument(instr),
		}
		if grid && len(is.Notes) > 0 {
			is.Grid = s.VisualString(instr)
		}
		ret.Instruments = append(ret.Instruments, is)
	}
	return ret
}

func showTemplate() (*template.Template, error) {
	caser := cases.Title(language.English)
	funcs := sprig.TxtFuncMap()
	funcs["caption"] = func(s string) string {
		return caser.String(strings.NewReplacer("_", " ", "-", " ").Replace(s))
	}
	tmpl, err := template.New("show.txt").Funcs(funcs).ParseFS(templateFS, "templates/show.txt")
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}
	return tmpl, nil
}

func (a *app) showCmd() *cobra.Command {
	var grid bool
	cmd := &cobra.Command{
		Use:   "show [path ...]",
		Short: "Print a summary of graphs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := showTemplate()
			if err != nil {
				return err
			}
			return a.each(args, graphExtensions, func(path string) error {
				g, err := readGraphFile(path)
				if err != nil {
					return err
				}
				var b strings.Builder
				if err := tmpl.Execute(&b, newSummary(baseName(path), g, grid)); err != nil {
					return fmt.Errorf("could not execute template: %w", err)
				}
				fmt.Fprint(a.stdout, b.String())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&grid, "grid", false, "draw the note grid of every instrument")
	return cmd
}
