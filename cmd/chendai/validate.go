package main

import (
	"github.com/spf13/cobra"
)

func newValidateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [score...]",
		Short: "Validate DNA records and scores without rendering",
		Long: `Validate DNA records and scores without rendering.

With no arguments only the DNA record set is checked. Each given score is
validated against the loaded instruments, including stroke categories and
timing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, _, err := rootOpts.loadEngine()
			if err != nil {
				return err
			}
			cmd.Printf("%v: %v instruments ok\n", rootOpts.dnaPath, len(defs))
			for _, path := range args {
				sc, err := loadScore(path, defs)
				if err != nil {
					return err
				}
				cmd.Printf("%v: %v events ok\n", path, len(sc.Events))
			}
			return nil
		},
	}
}
