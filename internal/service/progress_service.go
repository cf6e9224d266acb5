package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/store"
)

// ProgressService records watch progress with max-merge semantics.
type ProgressService interface {
	// ReportProgress merges a student's report and returns their progress afterwards.
	ReportProgress(ctx context.Context, userID uuid.UUID, report domain.ProgressReport) (*domain.UserProgress, error)

	// GetProgress returns every progress entry of a user.
	GetProgress(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)
}

type progressServiceImpl struct {
	db      *sql.DB
	users   store.UserStore
	cascade cascade
	logger  *slog.Logger
}

// NewProgressService creates a ProgressService.
func NewProgressService(
	db *sql.DB,
	users store.UserStore,
	playlists store.PlaylistStore,
	enrollments store.EnrollmentStore,
	progress store.ProgressStore,
	logger *slog.Logger,
) ProgressService {
	return &progressServiceImpl{
		db:    db,
		users: users,
		cascade: cascade{
			playlists:   playlists,
			enrollments: enrollments,
			progress:    progress,
		},
		logger: logger.With("component", "progress_service"),
	}
}

// ReportProgress applies every value as an atomic max-merge, so a late or
// repeated report never lowers stored progress. Writers for the same user
// are serialized by a row lock so the overall recompute sees every merge.
// Reports for a playlist that does not exist are rejected with
// store.ErrPlaylistNotFound.
func (s *progressServiceImpl) ReportProgress(
	ctx context.Context,
	userID uuid.UUID,
	report domain.ProgressReport,
) (*domain.UserProgress, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsStudent() {
		return nil, ErrNotStudent
	}

	var result *domain.UserProgress
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.cascade.progress.WithTx(tx)
		if err := progress.LockUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.cascade.playlists.WithTx(tx).GetByID(ctx, report.PlaylistID); err != nil {
			return fmt.Errorf("failed to load playlist: %w", err)
		}

		for videoID, pct := range report.VideoPercents {
			if err := progress.MergeVideoProgress(ctx, userID, report.PlaylistID, videoID, pct); err != nil {
				return fmt.Errorf("failed to merge video progress: %w", err)
			}
		}
		if report.OverallPlaylistProgress != nil {
			err := progress.MergePlaylistProgress(ctx, userID, report.PlaylistID, *report.OverallPlaylistProgress)
			if err != nil {
				return fmt.Errorf("failed to merge playlist progress: %w", err)
			}
		}

		result, err = s.cascade.recomputeOverall(ctx, tx, userID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to report progress",
			"error", err,
			"user_id", userID,
			"playlist_id", report.PlaylistID)
		return nil, err
	}

	s.logger.Debug("progress reported",
		"user_id", userID,
		"playlist_id", report.PlaylistID,
		"videos", len(report.VideoPercents),
		"overall_progress", result.OverallProgress)
	return result, nil
}

func (s *progressServiceImpl) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	progress, err := s.cascade.progress.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve progress: %w", err)
	}
	return progress, nil
}
