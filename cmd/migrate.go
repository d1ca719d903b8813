package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"camwatch/internal/config"
	"camwatch/internal/storage/postgres"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	withPostgres := func(run func(pg *postgres.Postgres) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrate requires STORAGE=%s", config.StoragePostgres)
			}
			pg, err := postgres.NewPostgres(cmd.Context(), a.cfg.Postgres, a.logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return run(pg)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withPostgres(func(pg *postgres.Postgres) error {
			if err := postgres.MigrateUp(pg.Pool); err != nil {
				return err
			}
			a.logger.Info("migrations applied")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			return withPostgres(func(pg *postgres.Postgres) error {
				if err := postgres.MigrateDown(pg.Pool, steps); err != nil {
					return err
				}
				a.logger.Info("migrations rolled back", slog.Int("steps", steps))
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withPostgres(func(pg *postgres.Postgres) error {
			v, dirty, err := postgres.MigrationVersion(pg.Pool)
			if err != nil {
				return err
			}
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
			return nil
		}),
	})

	return cmd
}
