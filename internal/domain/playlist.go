package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation errors for Playlist
var (
	ErrInvalidPlaylistURL = errors.New("invalid playlist URL")
	ErrEmptyPlaylistTitle = errors.New("playlist title cannot be empty")
	ErrEmptyMentorID      = errors.New("mentor ID cannot be empty")
	ErrNoPlaylistVideos   = errors.New("playlist has no videos")
)

var playlistIDPattern = regexp.MustCompile(`[?&]list=([^&#]+)`)

// Playlist is a mentor-curated list of videos that students enroll in.
type Playlist struct {
	ID         uuid.UUID       `json:"id"`
	MentorID   uuid.UUID       `json:"mentor_id"`
	Title      string          `json:"title"`
	SourceURL  string          `json:"source_url"`
	ExternalID string          `json:"external_id"`
	Videos     []PlaylistVideo `json:"videos"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PlaylistVideo is one entry of a playlist, in playlist order.
type PlaylistVideo struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
}

// NewPlaylist builds a playlist owned by mentorID from a source URL and its videos.
// The title defaults to the external playlist ID when empty.
func NewPlaylist(mentorID uuid.UUID, title, sourceURL string, videos []PlaylistVideo) (*Playlist, error) {
	externalID, err := ParsePlaylistURL(sourceURL)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = externalID
	}

	now := time.Now().UTC()
	p := &Playlist{
		ID:         uuid.New(),
		MentorID:   mentorID,
		Title:      title,
		SourceURL:  sourceURL,
		ExternalID: externalID,
		Videos:     videos,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks if the Playlist has valid data.
func (p *Playlist) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPlaylistID
	}
	if p.MentorID == uuid.Nil {
		return ErrEmptyMentorID
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyPlaylistTitle
	}
	if len(p.Videos) == 0 {
		return ErrNoPlaylistVideos
	}
	for _, v := range p.Videos {
		if strings.TrimSpace(v.VideoID) == "" {
			return ErrEmptyVideoID
		}
	}
	return nil
}

// VideoIDs returns the IDs of the playlist's videos, duplicates removed, in order.
func (p *Playlist) VideoIDs() []string {
	seen := make(map[string]struct{}, len(p.Videos))
	ids := make([]string, 0, len(p.Videos))
	for _, v := range p.Videos {
		if _, ok := seen[v.VideoID]; ok {
			continue
		}
		seen[v.VideoID] = struct{}{}
		ids = append(ids, v.VideoID)
	}
	return ids
}

// ParsePlaylistURL extracts the external playlist ID from the list query parameter.
func ParsePlaylistURL(raw string) (string, error) {
	m := playlistIDPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil || m[1] == "" {
		return "", ErrInvalidPlaylistURL
	}
	return m[1], nil
}

// VideoWatchURL is the canonical URL handed to the summarizer for a video.
func VideoWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
