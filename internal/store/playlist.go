package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
)

// PlaylistStore defines the interface for playlist persistence.
type PlaylistStore interface {
	// Create saves a playlist together with its videos.
	Create(ctx context.Context, playlist *domain.Playlist) error

	// GetByID retrieves a playlist with its videos in order.
	// Returns ErrPlaylistNotFound if the playlist does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Playlist, error)

	// ListByMentor returns the IDs of playlists owned by mentorID.
	ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]uuid.UUID, error)

	// Delete removes a playlist and its videos.
	// Returns ErrPlaylistNotFound if the playlist does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new PlaylistStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PlaylistStore
}

// EnrollmentStore tracks which users follow which playlists.
type EnrollmentStore interface {
	// Enroll adds the follow relation. Enrolling twice is a no-op.
	Enroll(ctx context.Context, userID, playlistID uuid.UUID) error

	// Unenroll removes the follow relation and reports whether one existed.
	Unenroll(ctx context.Context, userID, playlistID uuid.UUID) (bool, error)

	// ListFollowedPlaylists returns the playlists userID follows.
	ListFollowedPlaylists(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// ListEnrolledUsers returns the users following playlistID.
	ListEnrolledUsers(ctx context.Context, playlistID uuid.UUID) ([]uuid.UUID, error)

	// CountEnrolled returns how many users follow playlistID.
	CountEnrolled(ctx context.Context, playlistID uuid.UUID) (int, error)

	// DeleteByPlaylist removes every follow relation for playlistID.
	DeleteByPlaylist(ctx context.Context, playlistID uuid.UUID) error

	// WithTx returns a new EnrollmentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EnrollmentStore
}
