package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"camwatch/internal/components"
)

func newSweepCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue requests and markers once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := components.InitCore(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				a.logger.Error("could not init components", slog.Any("error", err))
				return err
			}
			defer comps.ShutdownAll()

			return comps.ExpirySweeper().SweepOnce(cmd.Context())
		},
	}
}
