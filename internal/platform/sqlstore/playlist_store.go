package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/store"
)

// PlaylistStore implements store.PlaylistStore on database/sql.
type PlaylistStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewPlaylistStore creates a PlaylistStore over db.
// If logger is nil, a default logger will be used.
func NewPlaylistStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *PlaylistStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "playlist_store")),
	}
}

var _ store.PlaylistStore = (*PlaylistStore)(nil)

// Create implements store.PlaylistStore.Create.
// Callers that need the playlist and its videos written atomically must pass
// a transaction-bound store.
func (s *PlaylistStore) Create(ctx context.Context, playlist *domain.Playlist) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := playlist.Validate(); err != nil {
		return err
	}

	query, args, err := s.dialect.builder().
		Insert("playlists").
		Columns("id", "mentor_id", "title", "source_url", "external_id", "created_at", "updated_at").
		Values(playlist.ID, playlist.MentorID, playlist.Title, playlist.SourceURL, playlist.ExternalID,
			s.dialect.timeArg(playlist.CreatedAt), s.dialect.timeArg(playlist.UpdatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: mentor %s not found", store.ErrInvalidEntity, playlist.MentorID)
		}
		log.Error("failed to create playlist",
			slog.String("error", err.Error()),
			slog.String("playlist_id", playlist.ID.String()))
		return MapError(err)
	}

	videos := s.dialect.builder().
		Insert("playlist_videos").
		Columns("playlist_id", "position", "video_id", "title", "duration_seconds")
	for i, v := range playlist.Videos {
		videos = videos.Values(playlist.ID, i, v.VideoID, v.Title, v.DurationSeconds)
	}
	query, args, err = videos.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build video insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to store playlist videos",
			slog.String("error", err.Error()),
			slog.String("playlist_id", playlist.ID.String()))
		return MapError(err)
	}

	log.Info("playlist created",
		slog.String("playlist_id", playlist.ID.String()),
		slog.String("mentor_id", playlist.MentorID.String()),
		slog.Int("video_count", len(playlist.Videos)))
	return nil
}

// GetByID implements store.PlaylistStore.GetByID.
func (s *PlaylistStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Playlist, error) {
	query, args, err := s.dialect.builder().
		Select("id", "mentor_id", "title", "source_url", "external_id", "created_at", "updated_at").
		From("playlists").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var (
		p         domain.Playlist
		createdAt dbTime
		updatedAt dbTime
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.MentorID, &p.Title, &p.SourceURL, &p.ExternalID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPlaylistNotFound
		}
		return nil, MapError(err)
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	query, args, err = s.dialect.builder().
		Select("video_id", "title", "duration_seconds").
		From("playlist_videos").
		Where(sq.Eq{"playlist_id": id}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build video select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var v domain.PlaylistVideo
		if err := rows.Scan(&v.VideoID, &v.Title, &v.DurationSeconds); err != nil {
			return nil, err
		}
		p.Videos = append(p.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return &p, nil
}

// ListByMentor implements store.PlaylistStore.ListByMentor.
func (s *PlaylistStore) ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := s.dialect.builder().
		Select("id").
		From("playlists").
		Where(sq.Eq{"mentor_id": mentorID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}
	return queryIDs(ctx, s.db, query, args)
}

// Delete implements store.PlaylistStore.Delete.
func (s *PlaylistStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := s.dialect.builder().
		Delete("playlists").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete playlist",
			slog.String("error", err.Error()),
			slog.String("playlist_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrPlaylistNotFound); err != nil {
		return err
	}

	log.Info("playlist deleted", slog.String("playlist_id", id.String()))
	return nil
}

// WithTx implements store.PlaylistStore.WithTx.
func (s *PlaylistStore) WithTx(tx *sql.Tx) store.PlaylistStore {
	return &PlaylistStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// queryIDs runs a single-column UUID query.
func queryIDs(ctx context.Context, db store.DBTX, query string, args []any) ([]uuid.UUID, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}
