package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"statuslookup/tui"
	"statuslookup/wizard"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the lookup wizard in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		finder, cleanup, err := newFinder(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		wz := wizard.New(newService(finder, cfg), wizard.WithReturnStep(returnStep(cfg)))
		support := fmt.Sprintf("Contact %s or call %s.", cfg.Support.Email, cfg.Support.Phone)
		return tui.Run(ctx, wz, support, logger)
	},
}
