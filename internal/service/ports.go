package service

import (
	"context"

	"github.com/phrazzld/edushare-api/internal/domain"
)

// VideoLister reads the videos of an external playlist in playlist order.
type VideoLister interface {
	ListVideos(ctx context.Context, playlistExternalID string) ([]domain.PlaylistVideo, error)
}
