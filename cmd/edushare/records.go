package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

var recordHeaders = []string{"Playlist", "Video", "Status", "Attempts", "Updated"}

func recordRows(records []*domain.EnrichmentRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PlaylistID.String(),
			r.VideoID,
			string(r.Status),
			strconv.Itoa(r.Attempts),
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

var recordAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}

func countRows(counts map[domain.EnrichmentStatus]int) [][]string {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{s, strconv.Itoa(counts[domain.EnrichmentStatus(s)])})
	}
	return rows
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	var finalize bool

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "List enrichment records a server would re-enqueue at startup",
		Long: "List pending and failed records with attempts left. Nothing is enqueued;\n" +
			"a running server picks these up on its next recovery sweep.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if finalize {
				// a pending record at the ceiling may belong to a live worker
				release, err := acquireWorkerLock(cfg.Database)
				if err != nil {
					return err
				}
				defer func() { _ = release() }()
			}
			db, dialect, err := ctx.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			records := sqlstore.NewEnrichmentStore(db, dialect, log)
			out := cmd.OutOrStdout()

			if finalize {
				n, err := records.FailExhausted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "finalized %d exhausted record(s) as failed\n", n)
			}

			recoverable, err := records.ListRecoverable(cmd.Context())
			if err != nil {
				return err
			}
			if len(recoverable) == 0 {
				fmt.Fprintln(out, "no records to recover")
				return nil
			}
			renderTable(out, recordHeaders, recordRows(recoverable), recordAligns)
			fmt.Fprintf(out, "%d record(s) eligible for re-enqueue\n", len(recoverable))
			return nil
		},
	}

	cmd.Flags().BoolVar(&finalize, "finalize-exhausted", false,
		"Mark pending records that used every attempt as failed before listing; only safe while no server is running")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var playlistFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show enrichment progress, overall or for one playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var playlistID *uuid.UUID
			if playlistFlag != "" {
				id, err := uuid.Parse(playlistFlag)
				if err != nil {
					return fmt.Errorf("invalid --playlist %q: %w", playlistFlag, err)
				}
				playlistID = &id
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

			records := sqlstore.NewEnrichmentStore(db, dialect, log)
			out := cmd.OutOrStdout()

			if playlistID != nil {
				list, err := records.ListByPlaylist(cmd.Context(), *playlistID)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintf(out, "no enrichment records for playlist %s\n", playlistID)
					return nil
				}
				renderTable(out, recordHeaders, recordRows(list), recordAligns)
			}

			counts, err := records.CountByStatus(cmd.Context(), playlistID)
			if err != nil {
				return err
			}
			renderTable(out, []string{"Status", "Records"}, countRows(counts),
				[]columnAlignment{alignLeft, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVar(&playlistFlag, "playlist", "", "Playlist ID to list per-video records for")
	return cmd
}
