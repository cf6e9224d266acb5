package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/service"
)

// ProgressHandler handles watch progress reports and reads.
type ProgressHandler struct {
	progress service.ProgressService
	logger   *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress service.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress: progress,
		logger:   logger.With(slog.String("component", "progress_handler")),
	}
}

// ReportProgress handles PUT /api/progress/{playlistId}.
func (h *ProgressHandler) ReportProgress(w http.ResponseWriter, r *http.Request) {
	userID, playlistID, ok := handleUserIDAndPathUUID(w, r, "playlistId")
	if !ok {
		return
	}

	var req ProgressRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	progress, err := h.progress.ReportProgress(r.Context(), userID, domain.ProgressReport{
		PlaylistID:              playlistID,
		VideoPercents:           req.VideoProgress,
		OverallPlaylistProgress: req.OverallPlaylistProgress,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record progress")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("progress recorded",
		slog.String("playlist_id", playlistID.String()),
		slog.Int("videos", len(req.VideoProgress)),
		slog.Float64("overall_progress", progress.OverallProgress))
	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}

// GetProgress handles GET /api/progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	progress, err := h.progress.GetProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}
