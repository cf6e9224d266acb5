package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
)

// EnrichmentStore persists summarization state keyed by (videoID, playlistID).
type EnrichmentStore interface {
	// CreateOrGet inserts a pending record with zero attempts, or returns the
	// existing record for the pair unchanged.
	CreateOrGet(ctx context.Context, videoID string, playlistID uuid.UUID) (*domain.EnrichmentRecord, error)

	// Get returns the record for the pair.
	// Returns ErrEnrichmentRecordNotFound if it does not exist.
	Get(ctx context.Context, videoID string, playlistID uuid.UUID) (*domain.EnrichmentRecord, error)

	// ClaimAttempt atomically increments the attempt counter of a record that
	// is not completed and is below the attempt ceiling, moving it back to
	// pending, and returns the new counter.
	// Returns ErrAttemptNotClaimable when no attempt may start and
	// ErrEnrichmentRecordNotFound when the record is absent.
	ClaimAttempt(ctx context.Context, videoID string, playlistID uuid.UUID) (int, error)

	// UpdateStatus applies update atomically. Attempts never decrease and a
	// nil summary keeps the stored one.
	// Returns ErrRecordFinalized if the record is completed or failed with
	// every attempt spent, and ErrEnrichmentRecordNotFound if it is absent.
	UpdateStatus(ctx context.Context, videoID string, playlistID uuid.UUID, update domain.StatusUpdate) error

	// ListByPlaylist returns every record of a playlist ordered by video ID.
	ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*domain.EnrichmentRecord, error)

	// ListRecoverable returns records that are pending or failed with fewer
	// than the maximum attempts.
	ListRecoverable(ctx context.Context) ([]*domain.EnrichmentRecord, error)

	// FailExhausted marks pending records that already used every attempt as
	// failed and returns how many changed. Such records are left behind when
	// the process stops during a final attempt. Callers must ensure no attempt
	// is in flight.
	FailExhausted(ctx context.Context) (int64, error)

	// CountByStatus returns the number of records per status, optionally for one playlist.
	CountByStatus(ctx context.Context, playlistID *uuid.UUID) (map[domain.EnrichmentStatus]int, error)

	// DeleteByPlaylist removes all records of a playlist and returns how many were removed.
	DeleteByPlaylist(ctx context.Context, playlistID uuid.UUID) (int64, error)

	// WithTx returns a new EnrichmentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EnrichmentStore
}
