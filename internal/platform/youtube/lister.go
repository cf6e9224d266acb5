package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// maxVideoIDsPerRequest is the Data API limit on ids per videos.list call.
const maxVideoIDsPerRequest = 50

// Lister fetches playlist contents from the YouTube Data API.
type Lister struct {
	svc      *ytapi.Service
	pageSize int64
	logger   *slog.Logger
}

// NewLister creates a Lister authenticated with the configured API key.
// Extra client options are appended, which lets tests point it elsewhere.
func NewLister(
	ctx context.Context,
	cfg config.YouTubeConfig,
	logger *slog.Logger,
	opts ...option.ClientOption,
) (*Lister, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key cannot be empty")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxVideoIDsPerRequest {
		pageSize = maxVideoIDsPerRequest
	}

	svc, err := ytapi.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	return &Lister{
		svc:      svc,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "youtube")),
	}, nil
}

// ListVideos returns the videos of the playlist with the given external ID
// in playlist order. Entries without a video ID, such as deleted videos, are
// skipped. Durations that cannot be resolved are reported as zero.
func (l *Lister) ListVideos(ctx context.Context, playlistID string) ([]domain.PlaylistVideo, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	var videos []domain.PlaylistVideo
	pageToken := ""
	for {
		call := l.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(l.pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			log.Error("failed to list playlist items",
				slog.String("playlist_external_id", playlistID),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to list playlist items: %w", err)
		}

		for _, item := range resp.Items {
			v := domain.PlaylistVideo{}
			if item.ContentDetails != nil {
				v.VideoID = item.ContentDetails.VideoId
			}
			if item.Snippet != nil {
				v.Title = item.Snippet.Title
				if v.VideoID == "" && item.Snippet.ResourceId != nil {
					v.VideoID = item.Snippet.ResourceId.VideoId
				}
			}
			if strings.TrimSpace(v.VideoID) == "" {
				continue
			}
			videos = append(videos, v)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if err := l.fillDurations(ctx, videos); err != nil {
		return nil, err
	}

	log.Debug("listed playlist videos",
		slog.String("playlist_external_id", playlistID),
		slog.Int("video_count", len(videos)))
	return videos, nil
}

func (l *Lister) fillDurations(ctx context.Context, videos []domain.PlaylistVideo) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	index := make(map[string][]int, len(videos))
	ids := make([]string, 0, len(videos))
	for i, v := range videos {
		if _, seen := index[v.VideoID]; !seen {
			ids = append(ids, v.VideoID)
		}
		index[v.VideoID] = append(index[v.VideoID], i)
	}

	for start := 0; start < len(ids); start += maxVideoIDsPerRequest {
		end := min(start+maxVideoIDsPerRequest, len(ids))

		resp, err := l.svc.Videos.List([]string{"contentDetails"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to list video details: %w", err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil {
				continue
			}
			seconds, err := ParseISODuration(item.ContentDetails.Duration)
			if err != nil {
				log.Warn("unparseable video duration",
					slog.String("video_id", item.Id),
					slog.String("duration", item.ContentDetails.Duration))
				continue
			}
			for _, i := range index[item.Id] {
				videos[i].DurationSeconds = seconds
			}
		}
	}
	return nil
}
