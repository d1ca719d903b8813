package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"camwatch/internal/components"
	"camwatch/internal/config"
	"camwatch/internal/storage/postgres"
)

// Execute runs the camwatch command line.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// app holds what every subcommand needs once the config is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "camwatch",
		Short:         "Footage requests, evidence matching and chain of custody",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				slog.Error("load config failed", slog.Any("error", err))
				return err
			}
			a.cfg = cfg
			a.logger = components.SetupLogger(cfg.Env)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newWorkerCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))
	rootCmd.AddCommand(newSweepCommand(a))

	return rootCmd
}

func newServeCommand(a *app) *cobra.Command {
	var migrate, withWorkers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := a.logger

			comps, err := components.InitComponents(ctx, a.cfg, logger)
			if err != nil {
				logger.Error("could not init components", slog.Any("error", err))
				return err
			}
			defer comps.ShutdownAll()

			if migrate && comps.Postgres != nil {
				if err := postgres.MigrateUp(comps.Postgres.Pool); err != nil {
					logger.Error("migration failed", slog.Any("error", err))
					return err
				}
			}

			var wg sync.WaitGroup
			if withWorkers {
				startBackground(ctx, &wg, comps, logger)
			}

			err = comps.HttpServer.Run(ctx)
			if err != nil {
				logger.Error("http server failed", slog.Any("error", err))
			}
			logger.Info("http server stopped")

			wg.Wait()
			return err
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	cmd.Flags().BoolVar(&withWorkers, "with-workers", false, "Also run the expiry sweeper and notification sender in this process")
	return cmd
}

// startBackground runs the expiry sweeper and, when a webhook is configured, the
// notification sender until ctx is done.
func startBackground(ctx context.Context, wg *sync.WaitGroup, comps *components.Components, logger *slog.Logger) {
	sweeper := comps.ExpirySweeper()
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	if sender := comps.NotificationSender(); sender != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sender.Run(ctx)
		}()
	} else {
		logger.Warn("webhook not configured, notification intents stay queued")
	}
}
