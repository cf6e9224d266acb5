package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/events"
	"github.com/phrazzld/edushare-api/internal/store"
)

// PlaylistService manages playlists, their enrichment, and enrollment.
type PlaylistService interface {
	// CreatePlaylist imports the videos of the playlist at sourceURL for a
	// mentor and schedules one summary job per video.
	CreatePlaylist(ctx context.Context, mentorID uuid.UUID, title, sourceURL string) (*domain.Playlist, error)

	// GetPlaylist returns a playlist with its videos.
	GetPlaylist(ctx context.Context, playlistID uuid.UUID) (*domain.Playlist, error)

	// ListEnrichment returns the enrichment record of every video in the playlist.
	ListEnrichment(ctx context.Context, playlistID uuid.UUID) ([]*domain.EnrichmentRecord, error)

	// DeletePlaylist removes a playlist owned by mentorID together with all
	// data derived from it.
	DeletePlaylist(ctx context.Context, mentorID, playlistID uuid.UUID) error

	// ToggleEnrollment follows or unfollows a playlist and reports whether
	// the user is enrolled afterwards.
	ToggleEnrollment(ctx context.Context, userID, playlistID uuid.UUID) (bool, error)

	// EnrollmentStats returns how many users follow a playlist.
	EnrollmentStats(ctx context.Context, playlistID uuid.UUID) (*EnrollmentStats, error)
}

// EnrollmentStats is the enrollment summary of one playlist.
type EnrollmentStats struct {
	PlaylistID    uuid.UUID `json:"playlist_id"`
	Title         string    `json:"title"`
	EnrolledCount int       `json:"enrolled_count"`
}

type playlistServiceImpl struct {
	db      *sql.DB
	users   store.UserStore
	lister  VideoLister
	emitter events.EventEmitter
	cascade cascade
	logger  *slog.Logger
}

// NewPlaylistService creates a PlaylistService.
func NewPlaylistService(
	db *sql.DB,
	users store.UserStore,
	playlists store.PlaylistStore,
	enrollments store.EnrollmentStore,
	records store.EnrichmentStore,
	progress store.ProgressStore,
	lister VideoLister,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (PlaylistService, error) {
	if db == nil || users == nil || playlists == nil || enrollments == nil ||
		records == nil || progress == nil {
		return nil, errors.New("playlist service requires a database and every store")
	}
	if lister == nil {
		return nil, errors.New("lister cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("emitter cannot be nil")
	}

	return &playlistServiceImpl{
		db:      db,
		users:   users,
		lister:  lister,
		emitter: emitter,
		cascade: cascade{
			playlists:   playlists,
			enrollments: enrollments,
			records:     records,
			progress:    progress,
		},
		logger: logger.With("component", "playlist_service"),
	}, nil
}

// CreatePlaylist validates the source URL before any external call, stores
// the playlist and a pending enrichment record per video in one
// transaction, and only then enqueues the summary jobs.
func (s *playlistServiceImpl) CreatePlaylist(
	ctx context.Context,
	mentorID uuid.UUID,
	title, sourceURL string,
) (*domain.Playlist, error) {
	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentor: %w", err)
	}
	if !mentor.IsMentor() {
		return nil, ErrNotMentor
	}

	externalID, err := domain.ParsePlaylistURL(sourceURL)
	if err != nil {
		return nil, err
	}

	videos, err := s.lister.ListVideos(ctx, externalID)
	if err != nil {
		s.logger.Error("failed to list playlist videos",
			"error", err,
			"external_id", externalID)
		return nil, fmt.Errorf("failed to list playlist videos: %w", err)
	}
	if len(videos) == 0 {
		return nil, ErrEmptyPlaylist
	}

	playlist, err := domain.NewPlaylist(mentorID, title, sourceURL, videos)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.cascade.playlists.WithTx(tx).Create(ctx, playlist); err != nil {
			return fmt.Errorf("failed to save playlist: %w", err)
		}
		records := s.cascade.records.WithTx(tx)
		for _, videoID := range playlist.VideoIDs() {
			if _, err := records.CreateOrGet(ctx, videoID, playlist.ID); err != nil {
				return fmt.Errorf("failed to create enrichment record for %s: %w", videoID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create playlist",
			"error", err,
			"mentor_id", mentorID,
			"external_id", externalID)
		return nil, err
	}

	s.logger.Info("playlist created",
		"playlist_id", playlist.ID,
		"mentor_id", mentorID,
		"video_count", len(playlist.Videos))

	s.enqueueSummaries(ctx, playlist)
	return playlist, nil
}

// enqueueSummaries emits one summary request per video. Failures are only
// logged: the records are already pending and recovery will pick them up.
func (s *playlistServiceImpl) enqueueSummaries(ctx context.Context, playlist *domain.Playlist) {
	for _, videoID := range playlist.VideoIDs() {
		event, err := events.NewSummaryRequestEvent(videoID, playlist.ID)
		if err == nil {
			err = s.emitter.EmitEvent(ctx, event)
		}
		if err != nil {
			s.logger.Warn("failed to enqueue summary job",
				"error", err,
				"playlist_id", playlist.ID,
				"video_id", videoID)
		}
	}
}

func (s *playlistServiceImpl) GetPlaylist(ctx context.Context, playlistID uuid.UUID) (*domain.Playlist, error) {
	playlist, err := s.cascade.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve playlist: %w", err)
	}
	return playlist, nil
}

func (s *playlistServiceImpl) ListEnrichment(
	ctx context.Context,
	playlistID uuid.UUID,
) ([]*domain.EnrichmentRecord, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	records, err := s.cascade.records.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrichment records: %w", err)
	}
	return records, nil
}

func (s *playlistServiceImpl) DeletePlaylist(ctx context.Context, mentorID, playlistID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		playlist, err := s.cascade.playlists.WithTx(tx).GetByID(ctx, playlistID)
		if err != nil {
			return fmt.Errorf("failed to retrieve playlist: %w", err)
		}
		if playlist.MentorID != mentorID {
			s.logger.Debug("delete rejected, playlist owned by another mentor",
				"playlist_id", playlistID,
				"mentor_id", mentorID)
			return ErrNotOwned
		}
		if err := s.cascade.deletePlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		s.logger.Info("playlist deleted", "playlist_id", playlistID, "mentor_id", mentorID)
		return nil
	})
}

func (s *playlistServiceImpl) ToggleEnrollment(ctx context.Context, userID, playlistID uuid.UUID) (bool, error) {
	var enrolled bool
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.cascade.progress.WithTx(tx).LockUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.cascade.playlists.WithTx(tx).GetByID(ctx, playlistID); err != nil {
			return fmt.Errorf("failed to retrieve playlist: %w", err)
		}

		enrollments := s.cascade.enrollments.WithTx(tx)
		removed, err := enrollments.Unenroll(ctx, userID, playlistID)
		if err != nil {
			return fmt.Errorf("failed to unenroll: %w", err)
		}
		if removed {
			if err := s.cascade.progress.WithTx(tx).DeletePlaylist(ctx, userID, playlistID); err != nil {
				return fmt.Errorf("failed to clear playlist progress: %w", err)
			}
		} else {
			if err := enrollments.Enroll(ctx, userID, playlistID); err != nil {
				return fmt.Errorf("failed to enroll: %w", err)
			}
			enrolled = true
		}

		_, err = s.cascade.recomputeOverall(ctx, tx, userID)
		return err
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("enrollment toggled",
		"user_id", userID,
		"playlist_id", playlistID,
		"enrolled", enrolled)
	return enrolled, nil
}

func (s *playlistServiceImpl) EnrollmentStats(ctx context.Context, playlistID uuid.UUID) (*EnrollmentStats, error) {
	playlist, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	count, err := s.cascade.enrollments.CountEnrolled(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return &EnrollmentStats{
		PlaylistID:    playlist.ID,
		Title:         playlist.Title,
		EnrolledCount: count,
	}, nil
}
