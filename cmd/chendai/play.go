package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/oto"
	"github.com/arjunparightsolutions/chendai/render"
)

func newPlayCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		mixPath  string
		duration float64
	)
	cmd := &cobra.Command{
		Use:   "play <score>",
		Short: "Render a score and play it on the system audio output",
		Args:  cobra.ExactArgs(1),
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
			r := render.NewRenderer(defs, cfg)
			r.Progress = func(format string, args ...any) {
				slog.Info(fmt.Sprintf(format, args...))
			}
			master, _, result, err := r.Render(cmd.Context(), sc, params, duration)
			if err != nil {
				return err
			}
			audio, err := oto.NewContext()
			if err != nil {
				return err
			}
			cmd.Printf("playing %.2f s\n", result.Duration)
			return audio.Play(cmd.Context(), master)
		},
	}
	cmd.Flags().StringVar(&mixPath, "mix", "", "per-instrument mix parameter file")
	cmd.Flags().Float64Var(&duration, "duration", 0, "fixed render length in seconds")
	return cmd
}
