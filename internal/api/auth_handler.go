package api

import (
	"net/http"

	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	users  service.UserService
	tokens auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.UserService, tokens auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	token, err := h.tokens.GenerateToken(r.Context(), user.ID, user.Role)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{User: userToResponse(user), Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{User: userToResponse(user), Token: token})
}
