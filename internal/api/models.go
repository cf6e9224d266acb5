package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=200"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required,oneof=mentor student"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreatePlaylistRequest defines the payload for creating a playlist from a
// YouTube playlist URL. Title defaults to the URL's playlist ID.
type CreatePlaylistRequest struct {
	Title string `json:"title" validate:"omitempty,max=300"`
	URL   string `json:"url"   validate:"required,url"`
}

// PlaylistResponse is the public view of a playlist.
type PlaylistResponse struct {
	ID         uuid.UUID              `json:"id"`
	MentorID   uuid.UUID              `json:"mentor_id"`
	Title      string                 `json:"title"`
	SourceURL  string                 `json:"source_url"`
	ExternalID string                 `json:"external_id"`
	Videos     []domain.PlaylistVideo `json:"videos"`
	CreatedAt  time.Time              `json:"created_at"`
}

// SummaryResponse is one video's enrichment state.
type SummaryResponse struct {
	VideoID  string                  `json:"video_id"`
	Summary  string                  `json:"summary,omitempty"`
	Status   domain.EnrichmentStatus `json:"status"`
	Attempts int                     `json:"attempts"`
}

// QuizRequest defines the optional payload for quiz generation. Zero means
// the configured default count.
type QuizRequest struct {
	Count int `json:"count" validate:"gte=0"`
}

// QuizResponse wraps generated questions.
type QuizResponse struct {
	PlaylistID uuid.UUID             `json:"playlist_id"`
	Questions  []domain.QuizQuestion `json:"questions"`
}

// ToggleResponse reports the state after an enroll or follow toggle.
type ToggleResponse struct {
	Active bool `json:"active"`
}

// FollowersResponse reports a mentor's follower count.
type FollowersResponse struct {
	MentorID       uuid.UUID `json:"mentor_id"`
	FollowersCount int       `json:"followers_count"`
}

// ProgressRequest reports watch progress for one playlist.
type ProgressRequest struct {
	VideoProgress           map[string]float64 `json:"videoProgress"           validate:"dive,keys,required,endkeys,gte=0,lte=100"`
	OverallPlaylistProgress *float64           `json:"overallPlaylistProgress" validate:"omitempty,gte=0,lte=100"`
}

// ProgressResponse is the caller's progress across all playlists.
type ProgressResponse struct {
	UserID                  uuid.UUID                     `json:"user_id"`
	PlaylistProgress        map[string]map[string]float64 `json:"playlist_progress"`
	OverallPlaylistProgress map[string]float64            `json:"overall_playlist_progress"`
	OverallProgress         float64                       `json:"overall_progress"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func playlistToResponse(p *domain.Playlist) PlaylistResponse {
	videos := p.Videos
	if videos == nil {
		videos = []domain.PlaylistVideo{}
	}
	return PlaylistResponse{
		ID:         p.ID,
		MentorID:   p.MentorID,
		Title:      p.Title,
		SourceURL:  p.SourceURL,
		ExternalID: p.ExternalID,
		Videos:     videos,
		CreatedAt:  p.CreatedAt,
	}
}

func summariesToResponse(records []*domain.EnrichmentRecord) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, SummaryResponse{
			VideoID:  rec.VideoID,
			Summary:  rec.Summary,
			Status:   rec.Status,
			Attempts: rec.Attempts,
		})
	}
	return out
}

func progressToResponse(p *domain.UserProgress) ProgressResponse {
	resp := ProgressResponse{
		UserID:                  p.UserID,
		PlaylistProgress:        make(map[string]map[string]float64, len(p.PlaylistProgress)),
		OverallPlaylistProgress: make(map[string]float64, len(p.OverallPlaylistProgress)),
		OverallProgress:         p.OverallProgress,
	}
	for playlistID, videos := range p.PlaylistProgress {
		resp.PlaylistProgress[playlistID.String()] = videos
	}
	for playlistID, pct := range p.OverallPlaylistProgress {
		resp.OverallPlaylistProgress[playlistID.String()] = pct
	}
	return resp
}
