package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bidsbuild/internal/convert"
	"bidsbuild/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of the external conversion tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var missing int
			for _, status := range deps.CheckBinaries(convert.Requirements(cfg)) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						missing++
					}
					message = status.Detail
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			if missing > 0 {
				return fmt.Errorf("%d required tools missing", missing)
			}
			return nil
		},
	}
}
