package main

import (
	"sort"

	"github.com/spf13/cobra"
)

func newStrokesCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strokes",
		Short: "List loaded instruments and their stroke categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, _, err := rootOpts.loadEngine()
			if err != nil {
				return err
			}
			for _, id := range defs.IDs() {
				def := defs[id]
				categories := def.StrokeCategories()
				sort.Strings(categories)
				cmd.Printf("%v (%v, %.0f Hz)\n", id, def.Family, def.BaseFreq)
				for _, c := range categories {
					cmd.Printf("  %v\n", c)
				}
			}
			return nil
		},
	}
}
