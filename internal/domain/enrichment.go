package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnrichmentStatus is the summarization state of a single video within a playlist.
type EnrichmentStatus string

// Possible enrichment status values
const (
	EnrichmentStatusPending   EnrichmentStatus = "pending"
	EnrichmentStatusCompleted EnrichmentStatus = "completed"
	EnrichmentStatusFailed    EnrichmentStatus = "failed"
)

// MaxSummaryAttempts is the attempt ceiling for summarizing one video.
const MaxSummaryAttempts = 3

// Validation errors for EnrichmentRecord
var (
	ErrEmptyVideoID            = errors.New("video ID cannot be empty")
	ErrEmptyPlaylistID         = errors.New("playlist ID cannot be empty")
	ErrInvalidEnrichmentStatus = errors.New("invalid enrichment status")
	ErrAttemptsOutOfRange      = errors.New("attempts must be between 0 and 3")
	ErrCompletedWithoutSummary = errors.New("completed record must have a summary")
)

// EnrichmentRecord is the persistent summarization state for one
// (video, playlist) pair. At most one record exists per pair.
type EnrichmentRecord struct {
	VideoID    string           `json:"video_id"`
	PlaylistID uuid.UUID        `json:"playlist_id"`
	Summary    string           `json:"summary,omitempty"`
	Status     EnrichmentStatus `json:"status"`
	Attempts   int              `json:"attempts"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewEnrichmentRecord returns a pending record with no attempts.
func NewEnrichmentRecord(videoID string, playlistID uuid.UUID) (*EnrichmentRecord, error) {
	now := time.Now().UTC()
	rec := &EnrichmentRecord{
		VideoID:    videoID,
		PlaylistID: playlistID,
		Status:     EnrichmentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks the record invariants.
func (r *EnrichmentRecord) Validate() error {
	if strings.TrimSpace(r.VideoID) == "" {
		return ErrEmptyVideoID
	}
	if r.PlaylistID == uuid.Nil {
		return ErrEmptyPlaylistID
	}
	if !r.Status.Valid() {
		return ErrInvalidEnrichmentStatus
	}
	if r.Attempts < 0 || r.Attempts > MaxSummaryAttempts {
		return ErrAttemptsOutOfRange
	}
	if r.Status == EnrichmentStatusCompleted && strings.TrimSpace(r.Summary) == "" {
		return ErrCompletedWithoutSummary
	}
	return nil
}

// IsCompleted reports whether the record reached its terminal success state.
func (r *EnrichmentRecord) IsCompleted() bool {
	return r.Status == EnrichmentStatusCompleted
}

// IsExhausted reports whether no further attempts are allowed.
func (r *EnrichmentRecord) IsExhausted() bool {
	return r.Attempts >= MaxSummaryAttempts
}

// IsRecoverable reports whether the record may take another attempt.
// Exhausted records stay terminal even when failed.
func (r *EnrichmentRecord) IsRecoverable() bool {
	return !r.IsCompleted() && !r.IsExhausted()
}

// HasSummary reports whether the record carries usable summary text.
func (r *EnrichmentRecord) HasSummary() bool {
	return strings.TrimSpace(r.Summary) != ""
}

// Valid reports whether s is a known status.
func (s EnrichmentStatus) Valid() bool {
	switch s {
	case EnrichmentStatusPending, EnrichmentStatusCompleted, EnrichmentStatusFailed:
		return true
	default:
		return false
	}
}

// StatusUpdate is an atomic change to an enrichment record. A nil Summary
// leaves the stored summary untouched.
type StatusUpdate struct {
	Summary  *string
	Status   EnrichmentStatus
	Attempts int
}

// Validate checks that applying the update cannot break record invariants.
func (u StatusUpdate) Validate() error {
	if !u.Status.Valid() {
		return ErrInvalidEnrichmentStatus
	}
	if u.Attempts < 0 || u.Attempts > MaxSummaryAttempts {
		return ErrAttemptsOutOfRange
	}
	if u.Status == EnrichmentStatusCompleted && (u.Summary == nil || strings.TrimSpace(*u.Summary) == "") {
		return ErrCompletedWithoutSummary
	}
	return nil
}
