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

const enrichmentTable = "enrichment_records"

var enrichmentColumns = []string{
	"video_id", "playlist_id", "summary", "status", "attempts", "created_at", "updated_at",
}

// EnrichmentStore implements store.EnrichmentStore on database/sql.
// Every state transition is a single conditional statement, so concurrent
// workers never observe a partially applied update.
type EnrichmentStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewEnrichmentStore creates an EnrichmentStore over db.
// If logger is nil, a default logger will be used.
func NewEnrichmentStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *EnrichmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "enrichment_store")),
	}
}

var _ store.EnrichmentStore = (*EnrichmentStore)(nil)

// CreateOrGet implements store.EnrichmentStore.CreateOrGet.
func (s *EnrichmentStore) CreateOrGet(
	ctx context.Context,
	videoID string,
	playlistID uuid.UUID,
) (*domain.EnrichmentRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rec, err := domain.NewEnrichmentRecord(videoID, playlistID)
	if err != nil {
		return nil, err
	}

	query, args, err := s.dialect.builder().
		Insert(enrichmentTable).
		Columns("video_id", "playlist_id", "status", "attempts", "created_at", "updated_at").
		Values(rec.VideoID, rec.PlaylistID, string(rec.Status), rec.Attempts,
			s.dialect.timeArg(rec.CreatedAt), s.dialect.timeArg(rec.UpdatedAt)).
		Suffix("ON CONFLICT (video_id, playlist_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: playlist %s not found", store.ErrInvalidEntity, playlistID)
		}
		log.Error("failed to create enrichment record",
			slog.String("error", err.Error()),
			slog.String("video_id", videoID),
			slog.String("playlist_id", playlistID.String()))
		return nil, MapError(err)
	}

	return s.Get(ctx, videoID, playlistID)
}

// Get implements store.EnrichmentStore.Get.
func (s *EnrichmentStore) Get(
	ctx context.Context,
	videoID string,
	playlistID uuid.UUID,
) (*domain.EnrichmentRecord, error) {
	query, args, err := s.dialect.builder().
		Select(enrichmentColumns...).
		From(enrichmentTable).
		Where(sq.Eq{"video_id": videoID, "playlist_id": playlistID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rec, err := scanEnrichment(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEnrichmentRecordNotFound
		}
		return nil, MapError(err)
	}
	return rec, nil
}

// ClaimAttempt implements store.EnrichmentStore.ClaimAttempt.
func (s *EnrichmentStore) ClaimAttempt(ctx context.Context, videoID string, playlistID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := s.dialect.builder().
		Update(enrichmentTable).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("status", string(domain.EnrichmentStatusPending)).
		Set("updated_at", s.dialect.timeArg(time.Now())).
		Where(sq.Eq{"video_id": videoID, "playlist_id": playlistID}).
		Where(sq.NotEq{"status": string(domain.EnrichmentStatusCompleted)}).
		Where(sq.Lt{"attempts": domain.MaxSummaryAttempts}).
		Suffix("RETURNING attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build claim: %w", err)
	}

	var attempts int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&attempts)
	if err == nil {
		log.Debug("summary attempt claimed",
			slog.String("video_id", videoID),
			slog.String("playlist_id", playlistID.String()),
			slog.Int("attempt", attempts))
		return attempts, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, MapError(err)
	}

	if _, getErr := s.Get(ctx, videoID, playlistID); getErr != nil {
		return 0, getErr
	}
	return 0, store.ErrAttemptNotClaimable
}

// UpdateStatus implements store.EnrichmentStore.UpdateStatus.
func (s *EnrichmentStore) UpdateStatus(
	ctx context.Context,
	videoID string,
	playlistID uuid.UUID,
	update domain.StatusUpdate,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := update.Validate(); err != nil {
		return err
	}

	b := s.dialect.builder().
		Update(enrichmentTable).
		Set("status", string(update.Status)).
		Set("attempts", sq.Expr(s.dialect.greatest("attempts", "?"), update.Attempts)).
		Set("updated_at", s.dialect.timeArg(time.Now()))
	if update.Summary != nil {
		b = b.Set("summary", *update.Summary)
	}

	query, args, err := b.
		Where(sq.Eq{"video_id": videoID, "playlist_id": playlistID}).
		Where(sq.NotEq{"status": string(domain.EnrichmentStatusCompleted)}).
		Where(sq.Or{
			sq.NotEq{"status": string(domain.EnrichmentStatusFailed)},
			sq.Lt{"attempts": domain.MaxSummaryAttempts},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update enrichment status",
			slog.String("error", err.Error()),
			slog.String("video_id", videoID),
			slog.String("playlist_id", playlistID.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, videoID, playlistID); getErr != nil {
			return getErr
		}
		return store.ErrRecordFinalized
	}

	log.Debug("enrichment status updated",
		slog.String("video_id", videoID),
		slog.String("playlist_id", playlistID.String()),
		slog.String("status", string(update.Status)),
		slog.Int("attempts", update.Attempts))
	return nil
}

// ListByPlaylist implements store.EnrichmentStore.ListByPlaylist.
func (s *EnrichmentStore) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*domain.EnrichmentRecord, error) {
	return s.list(ctx, s.dialect.builder().
		Select(enrichmentColumns...).
		From(enrichmentTable).
		Where(sq.Eq{"playlist_id": playlistID}).
		OrderBy("video_id"))
}

// ListRecoverable implements store.EnrichmentStore.ListRecoverable.
func (s *EnrichmentStore) ListRecoverable(ctx context.Context) ([]*domain.EnrichmentRecord, error) {
	return s.list(ctx, s.dialect.builder().
		Select(enrichmentColumns...).
		From(enrichmentTable).
		Where(sq.Eq{"status": []string{
			string(domain.EnrichmentStatusPending),
			string(domain.EnrichmentStatusFailed),
		}}).
		Where(sq.Lt{"attempts": domain.MaxSummaryAttempts}).
		OrderBy("created_at", "playlist_id", "video_id"))
}

func (s *EnrichmentStore) list(ctx context.Context, b sq.SelectBuilder) ([]*domain.EnrichmentRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.EnrichmentRecord
	for rows.Next() {
		rec, err := scanEnrichment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// FailExhausted implements store.EnrichmentStore.FailExhausted.
func (s *EnrichmentStore) FailExhausted(ctx context.Context) (int64, error) {
	query, args, err := s.dialect.builder().
		Update(enrichmentTable).
		Set("status", string(domain.EnrichmentStatusFailed)).
		Set("updated_at", s.dialect.timeArg(time.Now())).
		Where(sq.Eq{"status": string(domain.EnrichmentStatusPending)}).
		Where(sq.GtOrEq{"attempts": domain.MaxSummaryAttempts}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return rowsAffected(result)
}

// CountByStatus implements store.EnrichmentStore.CountByStatus.
func (s *EnrichmentStore) CountByStatus(
	ctx context.Context,
	playlistID *uuid.UUID,
) (map[domain.EnrichmentStatus]int, error) {
	b := s.dialect.builder().
		Select("status", "COUNT(*)").
		From(enrichmentTable).
		GroupBy("status")
	if playlistID != nil {
		b = b.Where(sq.Eq{"playlist_id": *playlistID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[domain.EnrichmentStatus]int{
		domain.EnrichmentStatusPending:   0,
		domain.EnrichmentStatusCompleted: 0,
		domain.EnrichmentStatusFailed:    0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.EnrichmentStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return counts, nil
}

// DeleteByPlaylist implements store.EnrichmentStore.DeleteByPlaylist.
func (s *EnrichmentStore) DeleteByPlaylist(ctx context.Context, playlistID uuid.UUID) (int64, error) {
	query, args, err := s.dialect.builder().
		Delete(enrichmentTable).
		Where(sq.Eq{"playlist_id": playlistID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return rowsAffected(result)
}

// WithTx implements store.EnrichmentStore.WithTx.
func (s *EnrichmentStore) WithTx(tx *sql.Tx) store.EnrichmentStore {
	return &EnrichmentStore{db: tx, dialect: s.dialect, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrichment(row rowScanner) (*domain.EnrichmentRecord, error) {
	var (
		rec       domain.EnrichmentRecord
		summary   sql.NullString
		status    string
		createdAt dbTime
		updatedAt dbTime
	)
	if err := row.Scan(
		&rec.VideoID,
		&rec.PlaylistID,
		&summary,
		&status,
		&rec.Attempts,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	rec.Summary = summary.String
	rec.Status = domain.EnrichmentStatus(status)
	rec.CreatedAt = createdAt.Time
	rec.UpdatedAt = updatedAt.Time
	return &rec, nil
}
