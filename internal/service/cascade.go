package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/store"
)

// cascade holds the stores touched when a playlist disappears or a user's
// follow set changes. Every method expects a transaction.
type cascade struct {
	playlists   store.PlaylistStore
	enrollments store.EnrollmentStore
	records     store.EnrichmentStore
	progress    store.ProgressStore
}

// deletePlaylist removes a playlist with its enrichment records, follow
// relations, and every user's progress entries, then recomputes the overall
// progress of each affected user.
func (c cascade) deletePlaylist(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID) error {
	enrollments := c.enrollments.WithTx(tx)
	progress := c.progress.WithTx(tx)

	if _, err := c.records.WithTx(tx).DeleteByPlaylist(ctx, playlistID); err != nil {
		return fmt.Errorf("failed to delete enrichment records: %w", err)
	}

	followers, err := enrollments.ListEnrolledUsers(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to list enrolled users: %w", err)
	}
	withProgress, err := progress.DeleteAllForPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	if err := enrollments.DeleteByPlaylist(ctx, playlistID); err != nil {
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	if err := c.playlists.WithTx(tx).Delete(ctx, playlistID); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	for _, userID := range uniqueIDs(followers, withProgress) {
		if _, err := c.recomputeOverall(ctx, tx, userID); err != nil {
			return err
		}
	}
	return nil
}

// recomputeOverall derives the user's overall progress from the playlists
// they currently follow, stores it, and returns the fresh progress.
func (c cascade) recomputeOverall(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*domain.UserProgress, error) {
	progress := c.progress.WithTx(tx)

	following, err := c.enrollments.WithTx(tx).ListFollowedPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed playlists: %w", err)
	}
	current, err := progress.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	overall := domain.ComputeOverallProgress(current.OverallPlaylistProgress, following)
	if err := progress.SetOverallProgress(ctx, userID, overall); err != nil {
		return nil, fmt.Errorf("failed to store overall progress: %w", err)
	}
	current.OverallProgress = overall
	return current, nil
}

func uniqueIDs(lists ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
