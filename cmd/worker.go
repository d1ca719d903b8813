package cmd

import (
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"camwatch/internal/components"
)

func newWorkerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run evidence verification, the expiry sweeper and the notification sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := a.logger

			comps, err := components.InitCore(ctx, a.cfg, logger)
			if err != nil {
				logger.Error("could not init components", slog.Any("error", err))
				return err
			}
			defer comps.ShutdownAll()

			var wg sync.WaitGroup
			startBackground(ctx, &wg, comps, logger)

			server, mux := comps.VerificationServer()
			go func() {
				<-ctx.Done()
				server.Shutdown()
			}()

			logger.Info("worker started", slog.Int("concurrency", a.cfg.Worker.Concurrency))
			err = server.Run(mux)
			if err != nil {
				logger.Error("worker stopped", slog.Any("error", err))
			}

			wg.Wait()
			return err
		},
	}
}
