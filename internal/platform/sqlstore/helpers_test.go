package sqlstore

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
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestDB returns a migrated SQLite database in a per-test directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "edushare.db"),
	}

	db, dialect, err := Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := NewMigrator(db, dialect, discardLogger())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	return db
}

func createTestUser(t *testing.T, db *sql.DB, role domain.Role) *domain.User {
	t.Helper()

	u, err := domain.NewUser("Test User", uuid.NewString()+"@example.com", "password123", role)
	require.NoError(t, err)
	u.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	u.Password = ""
	require.NoError(t, NewUserStore(db, SQLite, discardLogger()).Create(context.Background(), u))
	return u
}

func createTestPlaylist(t *testing.T, db *sql.DB, mentorID uuid.UUID, videoIDs ...string) *domain.Playlist {
	t.Helper()

	videos := make([]domain.PlaylistVideo, 0, len(videoIDs))
	for _, id := range videoIDs {
		videos = append(videos, domain.PlaylistVideo{VideoID: id, Title: "Video " + id, DurationSeconds: 60})
	}
	p, err := domain.NewPlaylist(mentorID, "Go Basics", "https://www.youtube.com/playlist?list=PL"+uuid.NewString()[:8], videos)
	require.NoError(t, err)
	require.NoError(t, NewPlaylistStore(db, SQLite, discardLogger()).Create(context.Background(), p))
	return p
}
