package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/service"
)

// UserHandler handles account and mentor follow requests.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// GetMe handles GET /api/users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteMe handles DELETE /api/users/me. A mentor's playlists go with them.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user deleted",
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFollow handles POST /api/mentors/{id}/follow.
func (h *UserHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, mentorID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	following, err := h.users.ToggleFollowMentor(r.Context(), userID, mentorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update follow")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ToggleResponse{Active: following})
}

// Followers handles GET /api/mentors/{id}/followers.
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	_, mentorID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	count, err := h.users.FollowersCount(r.Context(), mentorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count followers")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, FollowersResponse{MentorID: mentorID, FollowersCount: count})
}
