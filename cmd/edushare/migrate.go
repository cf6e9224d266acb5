package main

import (
	"fmt"
	"strconv"

	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back, or list database migrations (default up)",
		Args:      cobra.MatchAll(cobra.RangeArgs(0, 1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			_, log, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, dialect, err := ctx.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			migrator, err := sqlstore.NewMigrator(db, dialect, log)
			if err != nil {
				return err
			}

			switch action {
			case "down":
				return migrator.Down(cmd.Context())
			case "status":
				statuses, err := migrator.Status(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					rows = append(rows, []string{strconv.FormatInt(s.Version, 10), s.Name, state})
				}
				renderTable(cmd.OutOrStdout(), []string{"Version", "File", "State"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft})
				return nil
			default:
				if err := migrator.Up(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}
		},
	}
}
