package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/service"
)

// PlaylistHandler handles playlist, enrollment, summary, and quiz requests.
type PlaylistHandler struct {
	playlists service.PlaylistService
	quizzes   service.QuizService
	logger    *slog.Logger
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(
	playlists service.PlaylistService,
	quizzes service.QuizService,
	logger *slog.Logger,
) *PlaylistHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlaylistHandler")
	}
	return &PlaylistHandler{
		playlists: playlists,
		quizzes:   quizzes,
		logger:    logger.With(slog.String("component", "playlist_handler")),
	}
}

// CreatePlaylist handles POST /api/playlists. Summaries are generated in
// the background, so the response is 202 Accepted.
func (h *PlaylistHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	mentorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreatePlaylistRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	playlist, err := h.playlists.CreatePlaylist(r.Context(), mentorID, req.Title, req.URL)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create playlist")
		return
	}

	log.Info("playlist created",
		slog.String("playlist_id", playlist.ID.String()),
		slog.Int("videos", len(playlist.Videos)))
	shared.RespondWithJSON(w, r, http.StatusAccepted, playlistToResponse(playlist))
}

// GetPlaylist handles GET /api/playlists/{id}.
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	_, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	playlist, err := h.playlists.GetPlaylist(r.Context(), playlistID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get playlist")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, playlistToResponse(playlist))
}

// DeletePlaylist handles DELETE /api/playlists/{id}.
func (h *PlaylistHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	mentorID, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.playlists.DeletePlaylist(r.Context(), mentorID, playlistID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete playlist")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("playlist deleted",
		slog.String("playlist_id", playlistID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListSummaries handles GET /api/playlists/{id}/summaries.
func (h *PlaylistHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	_, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	records, err := h.playlists.ListEnrichment(r.Context(), playlistID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list summaries")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summariesToResponse(records))
}

// GenerateQuiz handles POST /api/playlists/{id}/quiz. The body is optional.
func (h *PlaylistHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	_, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req QuizRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	questions, err := h.quizzes.GenerateQuiz(r.Context(), playlistID, req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate quiz")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, QuizResponse{PlaylistID: playlistID, Questions: questions})
}

// ToggleEnrollment handles POST /api/playlists/{id}/enroll.
func (h *PlaylistHandler) ToggleEnrollment(w http.ResponseWriter, r *http.Request) {
	userID, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	enrolled, err := h.playlists.ToggleEnrollment(r.Context(), userID, playlistID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update enrollment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ToggleResponse{Active: enrolled})
}

// EnrollmentStats handles GET /api/playlists/{id}/stats.
func (h *PlaylistHandler) EnrollmentStats(w http.ResponseWriter, r *http.Request) {
	_, playlistID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.playlists.EnrollmentStats(r.Context(), playlistID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get enrollment stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
