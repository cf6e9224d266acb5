package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/events"
	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-that-is-32-chars-long"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires every store against a migrated SQLite database.
type testEnv struct {
	db          *sql.DB
	users       *sqlstore.UserStore
	playlists   *sqlstore.PlaylistStore
	enrollments *sqlstore.EnrollmentStore
	records     *sqlstore.EnrichmentStore
	progress    *sqlstore.ProgressStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	logger := discardLogger()
	db, dialect, err := sqlstore.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "service.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := sqlstore.NewMigrator(db, dialect, logger)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	return &testEnv{
		db:          db,
		users:       sqlstore.NewUserStore(db, dialect, logger),
		playlists:   sqlstore.NewPlaylistStore(db, dialect, logger),
		enrollments: sqlstore.NewEnrollmentStore(db, dialect, logger),
		records:     sqlstore.NewEnrichmentStore(db, dialect, logger),
		progress:    sqlstore.NewProgressStore(db, dialect, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Test User", uuid.NewString()+"@example.com", "password123", role)
	require.NoError(t, err)
	u.HashedPassword = "$2a$04$abcdefghijklmnopqrstuv"
	u.Password = ""
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// createPlaylist stores a playlist with pending records, bypassing the service.
func (e *testEnv) createPlaylist(t *testing.T, mentorID uuid.UUID, videoIDs ...string) *domain.Playlist {
	t.Helper()
	videos := make([]domain.PlaylistVideo, 0, len(videoIDs))
	for _, id := range videoIDs {
		videos = append(videos, domain.PlaylistVideo{VideoID: id, Title: "Video " + id})
	}
	p, err := domain.NewPlaylist(mentorID, "Playlist", "https://www.youtube.com/playlist?list=PL"+uuid.NewString()[:8], videos)
	require.NoError(t, err)
	require.NoError(t, e.playlists.Create(context.Background(), p))
	for _, id := range videoIDs {
		_, err := e.records.CreateOrGet(context.Background(), id, p.ID)
		require.NoError(t, err)
	}
	return p
}

func (e *testEnv) complete(t *testing.T, playlistID uuid.UUID, videoID, summary string) {
	t.Helper()
	require.NoError(t, e.records.UpdateStatus(context.Background(), videoID, playlistID, domain.StatusUpdate{
		Summary:  &summary,
		Status:   domain.EnrichmentStatusCompleted,
		Attempts: 1,
	}))
}

func (e *testEnv) playlistService(t *testing.T, lister service.VideoLister, emitter events.EventEmitter) service.PlaylistService {
	t.Helper()
	svc, err := service.NewPlaylistService(
		e.db, e.users, e.playlists, e.enrollments, e.records, e.progress,
		lister, emitter, discardLogger())
	require.NoError(t, err)
	return svc
}

func (e *testEnv) progressService() service.ProgressService {
	return service.NewProgressService(e.db, e.users, e.playlists, e.enrollments, e.progress, discardLogger())
}

func (e *testEnv) userService(t *testing.T) service.UserService {
	t.Helper()
	tokens, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testJWTSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	passwords := auth.NewBcryptVerifier(4)
	return service.NewUserService(
		e.db, e.users, e.playlists, e.enrollments, e.records, e.progress,
		passwords, passwords, tokens, discardLogger())
}

type mockLister struct{ mock.Mock }

func (m *mockLister) ListVideos(ctx context.Context, externalID string) ([]domain.PlaylistVideo, error) {
	args := m.Called(ctx, externalID)
	videos, _ := args.Get(0).([]domain.PlaylistVideo)
	return videos, args.Error(1)
}

type mockEmitter struct{ mock.Mock }

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockQuizGenerator struct{ mock.Mock }

func (m *mockQuizGenerator) GenerateQuiz(ctx context.Context, text string, count int) (string, error) {
	args := m.Called(ctx, text, count)
	return args.String(0), args.Error(1)
}

func ptr[T any](v T) *T { return &v }
