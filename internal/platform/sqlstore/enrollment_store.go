package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/store"
)

// EnrollmentStore implements store.EnrollmentStore on database/sql.
type EnrollmentStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewEnrollmentStore creates an EnrollmentStore over db.
func NewEnrollmentStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *EnrollmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "enrollment_store")),
	}
}

var _ store.EnrollmentStore = (*EnrollmentStore)(nil)

// Enroll implements store.EnrollmentStore.Enroll.
func (s *EnrollmentStore) Enroll(ctx context.Context, userID, playlistID uuid.UUID) error {
	query, args, err := s.dialect.builder().
		Insert("playlist_enrollments").
		Columns("user_id", "playlist_id", "created_at").
		Values(userID, playlistID, s.dialect.timeArg(time.Now())).
		Suffix("ON CONFLICT (user_id, playlist_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or playlist not found", store.ErrInvalidEntity)
		}
		return MapError(err)
	}
	return nil
}

// Unenroll implements store.EnrollmentStore.Unenroll.
func (s *EnrollmentStore) Unenroll(ctx context.Context, userID, playlistID uuid.UUID) (bool, error) {
	query, args, err := s.dialect.builder().
		Delete("playlist_enrollments").
		Where(sq.Eq{"user_id": userID, "playlist_id": playlistID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, MapError(err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFollowedPlaylists implements store.EnrollmentStore.ListFollowedPlaylists.
func (s *EnrollmentStore) ListFollowedPlaylists(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := s.dialect.builder().
		Select("playlist_id").
		From("playlist_enrollments").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return queryIDs(ctx, s.db, query, args)
}

// ListEnrolledUsers implements store.EnrollmentStore.ListEnrolledUsers.
func (s *EnrollmentStore) ListEnrolledUsers(ctx context.Context, playlistID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := s.dialect.builder().
		Select("user_id").
		From("playlist_enrollments").
		Where(sq.Eq{"playlist_id": playlistID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return queryIDs(ctx, s.db, query, args)
}

// CountEnrolled implements store.EnrollmentStore.CountEnrolled.
func (s *EnrollmentStore) CountEnrolled(ctx context.Context, playlistID uuid.UUID) (int, error) {
	query, args, err := s.dialect.builder().
		Select("COUNT(*)").
		From("playlist_enrollments").
		Where(sq.Eq{"playlist_id": playlistID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// DeleteByPlaylist implements store.EnrollmentStore.DeleteByPlaylist.
func (s *EnrollmentStore) DeleteByPlaylist(ctx context.Context, playlistID uuid.UUID) error {
	query, args, err := s.dialect.builder().
		Delete("playlist_enrollments").
		Where(sq.Eq{"playlist_id": playlistID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

// WithTx implements store.EnrollmentStore.WithTx.
func (s *EnrollmentStore) WithTx(tx *sql.Tx) store.EnrollmentStore {
	return &EnrollmentStore{db: tx, dialect: s.dialect, logger: s.logger}
}
