package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/render"
)

func newRenderCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		output    string
		format    string
		mixPath   string
		duration  float64
		stems     bool
		normalize bool
	)
	cmd := &cobra.Command{
		Use:   "render <score>",
		Short: "Render a score to an audio file",
		Long: `Render a score to an audio file.

The score is YAML or JSON; standard MIDI files are imported using the
per-instrument note maps. Output is written next to the metadata JSON as
<output>.<ext>; with --stems one additional file per instrument channel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, cfg, err := rootOpts.loadEngine()
			if err != nil {
				return err
			}
			sc, err := loadScore(args[0], defs)
			if err != nil {
				return err
			}
			var params map[string]chendai.MixParameters
			if mixPath != "" {
				if params, err = chendai.LoadMixParameterFile(mixPath); err != nil {
					return err
				}
			}
			outFormat, err := chendai.ParseFormat(format)
			if err != nil {
				return err
			}
			r := render.NewRenderer(defs, cfg)
			r.Progress = func(format string, args ...any) {
				slog.Info(fmt.Sprintf(format, args...))
			}
			master, channels, result, err := r.Render(cmd.Context(), sc, params, duration)
			if err != nil {
				return err
			}
			base := output
			if base == "" {
				base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}
			final, err := chendai.Export(base, master, channels, *result, chendai.ExportOptions{
				Format:    outFormat,
				Normalize: normalize,
				Headroom:  cfg.MasterHeadroom,
				Stems:     stems,
			})
			if err != nil {
				return err
			}
			cmd.Println(final.MasterPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: score path without extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "wav16", "output format: wav16, wav24, flac, opus")
	cmd.Flags().StringVar(&mixPath, "mix", "", "per-instrument mix parameter file")
	cmd.Flags().Float64Var(&duration, "duration", 0, "fixed render length in seconds (default: last event plus tail)")
	cmd.Flags().BoolVar(&stems, "stems", false, "also export one file per instrument channel")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "normalize peaks to the configured headroom before encoding")
	return cmd
}
