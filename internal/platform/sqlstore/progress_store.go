package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/store"
)

// ProgressStore implements store.ProgressStore on database/sql.
// Merges are single upserts that keep the larger of the stored and incoming
// percent, so concurrent reports cannot lower a value.
type ProgressStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewProgressStore creates a ProgressStore over db.
func NewProgressStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "progress_store")),
	}
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// LockUser implements store.ProgressStore.LockUser.
func (s *ProgressStore) LockUser(ctx context.Context, userID uuid.UUID) error {
	b := s.dialect.builder().
		Select("id").
		From("users").
		Where(sq.Eq{"id": userID})
	if s.dialect.lockSuffix != "" {
		b = b.Suffix(s.dialect.lockSuffix)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lock: %w", err)
	}

	var id uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrUserNotFound
		}
		return MapError(err)
	}
	return nil
}

// MergeVideoProgress implements store.ProgressStore.MergeVideoProgress.
func (s *ProgressStore) MergeVideoProgress(
	ctx context.Context,
	userID, playlistID uuid.UUID,
	videoID string,
	percent float64,
) error {
	query, args, err := s.dialect.builder().
		Insert("video_progress").
		Columns("user_id", "playlist_id", "video_id", "percent", "updated_at").
		Values(userID, playlistID, videoID, percent, s.dialect.timeArg(time.Now())).
		Suffix("ON CONFLICT (user_id, playlist_id, video_id) DO UPDATE SET percent = " +
			s.dialect.greatest("video_progress.percent", "excluded.percent") +
			", updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}
	return s.exec(ctx, query, args, userID, playlistID)
}

// MergePlaylistProgress implements store.ProgressStore.MergePlaylistProgress.
func (s *ProgressStore) MergePlaylistProgress(ctx context.Context, userID, playlistID uuid.UUID, percent float64) error {
	query, args, err := s.dialect.builder().
		Insert("playlist_progress").
		Columns("user_id", "playlist_id", "percent", "updated_at").
		Values(userID, playlistID, percent, s.dialect.timeArg(time.Now())).
		Suffix("ON CONFLICT (user_id, playlist_id) DO UPDATE SET percent = " +
			s.dialect.greatest("playlist_progress.percent", "excluded.percent") +
			", updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}
	return s.exec(ctx, query, args, userID, playlistID)
}

func (s *ProgressStore) exec(ctx context.Context, query string, args []any, userID, playlistID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user %s or playlist %s not found", store.ErrInvalidEntity, userID, playlistID)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to merge progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	progress := domain.NewUserProgress(userID)

	query, args, err := s.dialect.builder().
		Select("overall_progress").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&progress.OverallProgress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	query, args, err = s.dialect.builder().
		Select("playlist_id", "video_id", "percent").
		From("video_progress").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	err = s.each(ctx, query, args, func(rows *sql.Rows) error {
		var (
			playlistID uuid.UUID
			videoID    string
			percent    float64
		)
		if err := rows.Scan(&playlistID, &videoID, &percent); err != nil {
			return err
		}
		videos, ok := progress.PlaylistProgress[playlistID]
		if !ok {
			videos = make(map[string]float64)
			progress.PlaylistProgress[playlistID] = videos
		}
		videos[videoID] = percent
		return nil
	})
	if err != nil {
		return nil, err
	}

	query, args, err = s.dialect.builder().
		Select("playlist_id", "percent").
		From("playlist_progress").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	err = s.each(ctx, query, args, func(rows *sql.Rows) error {
		var (
			playlistID uuid.UUID
			percent    float64
		)
		if err := rows.Scan(&playlistID, &percent); err != nil {
			return err
		}
		progress.OverallPlaylistProgress[playlistID] = percent
		return nil
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

func (s *ProgressStore) each(ctx context.Context, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}
	return nil
}

// SetOverallProgress implements store.ProgressStore.SetOverallProgress.
func (s *ProgressStore) SetOverallProgress(ctx context.Context, userID uuid.UUID, value float64) error {
	query, args, err := s.dialect.builder().
		Update("users").
		Set("overall_progress", value).
		Set("updated_at", s.dialect.timeArg(time.Now())).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// DeletePlaylist implements store.ProgressStore.DeletePlaylist.
func (s *ProgressStore) DeletePlaylist(ctx context.Context, userID, playlistID uuid.UUID) error {
	for _, table := range []string{"video_progress", "playlist_progress"} {
		query, args, err := s.dialect.builder().
			Delete(table).
			Where(sq.Eq{"user_id": userID, "playlist_id": playlistID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// DeleteAllForPlaylist implements store.ProgressStore.DeleteAllForPlaylist.
func (s *ProgressStore) DeleteAllForPlaylist(ctx context.Context, playlistID uuid.UUID) ([]uuid.UUID, error) {
	users := s.dialect.builder().
		Select("user_id").
		From("video_progress").
		Where(sq.Eq{"playlist_id": playlistID})
	scalars := s.dialect.builder().
		Select("user_id").
		From("playlist_progress").
		Where(sq.Eq{"playlist_id": playlistID})

	// squirrel has no UNION builder; both halves share the placeholder format.
	left, leftArgs, err := users.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	right, rightArgs, err := scalars.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	query, err := s.dialect.placeholder.ReplacePlaceholders(left + " UNION " + right)
	if err != nil {
		return nil, fmt.Errorf("failed to build union: %w", err)
	}

	affected, err := queryIDs(ctx, s.db, query, append(leftArgs, rightArgs...))
	if err != nil {
		return nil, err
	}

	for _, table := range []string{"video_progress", "playlist_progress"} {
		query, args, err := s.dialect.builder().
			Delete(table).
			Where(sq.Eq{"playlist_id": playlistID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build delete: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, MapError(err)
		}
	}
	return affected, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *ProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &ProgressStore{db: tx, dialect: s.dialect, logger: s.logger}
}
