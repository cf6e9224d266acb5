package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/edushare-api/internal/api/middleware"
	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/redact"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// QueueStats exposes the task queue depth for the health endpoint.
type QueueStats interface {
	InFlight() int
}

// RouterDeps bundles everything NewRouter mounts.
type RouterDeps struct {
	Users     service.UserService
	Playlists service.PlaylistService
	Progress  service.ProgressService
	Quizzes   service.QuizService
	Tokens    auth.JWTService
	DB        Pinger
	Queue     QueueStats
	Logger    *slog.Logger
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	InFlight int    `json:"in_flight_tasks"`
}

const healthPingTimeout = 2 * time.Second

// NewRouter builds the HTTP handler for the service.
func NewRouter(deps RouterDeps) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens)
	authHandler := NewAuthHandler(deps.Users, deps.Tokens)
	playlistHandler := NewPlaylistHandler(deps.Playlists, deps.Quizzes, deps.Logger)
	progressHandler := NewProgressHandler(deps.Progress, deps.Logger)
	userHandler := NewUserHandler(deps.Users, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler(deps.DB, deps.Queue))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/playlists", func(r chi.Router) {
				r.With(middleware.RequireRole(domain.RoleMentor)).Post("/", playlistHandler.CreatePlaylist)
				r.Get("/{id}", playlistHandler.GetPlaylist)
				r.Delete("/{id}", playlistHandler.DeletePlaylist)
				r.Get("/{id}/summaries", playlistHandler.ListSummaries)
				r.Post("/{id}/quiz", playlistHandler.GenerateQuiz)
				r.Post("/{id}/enroll", playlistHandler.ToggleEnrollment)
				r.Get("/{id}/stats", playlistHandler.EnrollmentStats)
			})

			r.Get("/progress", progressHandler.GetProgress)
			r.With(middleware.RequireRole(domain.RoleStudent)).
				Put("/progress/{playlistId}", progressHandler.ReportProgress)

			r.Post("/mentors/{id}/follow", userHandler.ToggleFollow)
			r.Get("/mentors/{id}/followers", userHandler.Followers)

			r.Get("/users/me", userHandler.GetMe)
			r.Delete("/users/me", userHandler.DeleteMe)
		})
	})

	return r
}

func healthHandler(db Pinger, queue QueueStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Database: "ok"}
		if queue != nil {
			resp.InFlight = queue.InFlight()
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Error("health check failed", "error", redact.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, resp)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, resp)
	}
}
