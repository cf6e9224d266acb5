package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the summary workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			release, err := acquireWorkerLock(cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if err := release(); err != nil {
					log.Warn("failed to release worker lock", "error", err)
				}
			}()

			db, dialect, err := ctx.openDatabase(runCtx)
			if err != nil {
				return err
			}

			if !skipMigrations {
				migrator, err := sqlstore.NewMigrator(db, dialect, log)
				if err != nil {
					_ = db.Close()
					return err
				}
				if err := migrator.Up(runCtx); err != nil {
					_ = db.Close()
					return err
				}
			}

			app, err := newApplication(runCtx, cfg, log, db, dialect)
			if err != nil {
				_ = db.Close()
				return err
			}
			defer app.cleanup()

			if err := app.Run(runCtx); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations at startup")
	return cmd
}
