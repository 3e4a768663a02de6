// Command chendai renders percussion ensemble scores into audio files. It
// loads instrument DNA records and a score, synthesizes every stroke,
// mixes the ensemble and exports the result.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/version"
)

type rootOptions struct {
	dnaPath    string
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chendai:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "chendai",
		Short:   "DNA-driven Kerala percussion synthesis engine",
		Version: version.String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dnaPath, "dna", "instruments.yaml", "instrument DNA record set")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "engine configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress")

	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newPlayCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newStrokesCommand(opts))
	return cmd
}

// loadEngine resolves the shared inputs of every subcommand: the DNA store
// and the engine configuration.
func (o *rootOptions) loadEngine() (chendai.DefinitionSet, chendai.Config, error) {
	defs, err := chendai.LoadDefinitionFile(o.dnaPath)
	if err != nil {
		return nil, chendai.Config{}, err
	}
	cfg := chendai.FromEnv()
	if o.configPath != "" {
		if cfg, err = chendai.LoadConfigFile(o.configPath); err != nil {
			return nil, chendai.Config{}, err
		}
	}
	return defs, cfg, nil
}

// loadScore reads a score file, importing standard MIDI files by
// extension and parsing everything else as YAML/JSON.
func loadScore(path string, defs chendai.DefinitionSet) (chendai.Score, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return chendai.ImportSMF(path, defs)
	}
	sc, err := chendai.LoadScoreFile(path)
	if err != nil {
		return chendai.Score{}, err
	}
	return chendai.ValidateScore(defs, sc)
}
