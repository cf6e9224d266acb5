package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
)

// ProgressStore persists watch progress with per-field atomic max-merges.
type ProgressStore interface {
	// LockUser serializes progress writers for one user until the surrounding
	// transaction ends. Returns ErrUserNotFound if the user does not exist.
	LockUser(ctx context.Context, userID uuid.UUID) error

	// MergeVideoProgress stores max(stored or 0, percent) for one video.
	MergeVideoProgress(ctx context.Context, userID, playlistID uuid.UUID, videoID string, percent float64) error

	// MergePlaylistProgress stores max(stored or 0, percent) for one playlist scalar.
	MergePlaylistProgress(ctx context.Context, userID, playlistID uuid.UUID, percent float64) error

	// Get returns every progress entry of a user, including the overall scalar.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)

	// SetOverallProgress stores the derived overall scalar.
	SetOverallProgress(ctx context.Context, userID uuid.UUID, value float64) error

	// DeletePlaylist removes one user's entries for playlistID.
	DeletePlaylist(ctx context.Context, userID, playlistID uuid.UUID) error

	// DeleteAllForPlaylist removes every user's entries for playlistID and
	// returns the users that had any.
	DeleteAllForPlaylist(ctx context.Context, playlistID uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
