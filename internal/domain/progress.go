package domain

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

// ErrPercentOutOfRange is returned for progress values outside 0..100.
var ErrPercentOutOfRange = errors.New("percent must be between 0 and 100")

// UserProgress is the watch progress of one user across playlists.
type UserProgress struct {
	UserID uuid.UUID `json:"user_id"`
	// PlaylistProgress maps playlist ID to video ID to percent watched.
	PlaylistProgress map[uuid.UUID]map[string]float64 `json:"playlist_progress"`
	// OverallPlaylistProgress maps playlist ID to one scalar for the whole playlist.
	OverallPlaylistProgress map[uuid.UUID]float64 `json:"overall_playlist_progress"`
	OverallProgress         float64               `json:"overall_progress"`
}

// NewUserProgress returns empty progress for userID.
func NewUserProgress(userID uuid.UUID) *UserProgress {
	return &UserProgress{
		UserID:                  userID,
		PlaylistProgress:        make(map[uuid.UUID]map[string]float64),
		OverallPlaylistProgress: make(map[uuid.UUID]float64),
	}
}

// ProgressReport is one client update for a single playlist.
type ProgressReport struct {
	PlaylistID              uuid.UUID
	VideoPercents           map[string]float64
	OverallPlaylistProgress *float64
}

// Validate checks identifiers and percent ranges.
func (r ProgressReport) Validate() error {
	if r.PlaylistID == uuid.Nil {
		return ErrEmptyPlaylistID
	}
	for videoID, pct := range r.VideoPercents {
		if videoID == "" {
			return ErrEmptyVideoID
		}
		if !validPercent(pct) {
			return ErrPercentOutOfRange
		}
	}
	if r.OverallPlaylistProgress != nil && !validPercent(*r.OverallPlaylistProgress) {
		return ErrPercentOutOfRange
	}
	return nil
}

// ComputeOverallProgress returns the mean of the per-playlist scalars over the
// followed playlists, counting a missing scalar as 0. The result is 0 when no
// followed playlist has progress above 0.
func ComputeOverallProgress(overall map[uuid.UUID]float64, following []uuid.UUID) float64 {
	if len(following) == 0 {
		return 0
	}

	var sum float64
	anyPositive := false
	for _, id := range following {
		v := overall[id]
		if v > 0 {
			anyPositive = true
		}
		sum += v
	}
	if !anyPositive {
		return 0
	}
	return sum / float64(len(following))
}

func validPercent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
