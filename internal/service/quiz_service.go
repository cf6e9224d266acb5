package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/store"
)

// QuizService builds multiple-choice quizzes from playlist summaries.
type QuizService interface {
	// GenerateQuiz returns up to count questions about the playlist. A count
	// of zero selects the configured default.
	// Returns generation.ErrNothingToGenerate when no video has a summary and
	// an error wrapping generation.ErrGenerationFailed when the model call or
	// its output fails.
	GenerateQuiz(ctx context.Context, playlistID uuid.UUID, count int) ([]domain.QuizQuestion, error)
}

const summarySeparator = "\n\n"

type quizServiceImpl struct {
	playlists store.PlaylistStore
	records   store.EnrichmentStore
	generator generation.QuizGenerator
	config    config.QuizConfig
	logger    *slog.Logger
}

// NewQuizService creates a QuizService.
func NewQuizService(
	playlists store.PlaylistStore,
	records store.EnrichmentStore,
	generator generation.QuizGenerator,
	cfg config.QuizConfig,
	logger *slog.Logger,
) QuizService {
	return &quizServiceImpl{
		playlists: playlists,
		records:   records,
		generator: generator,
		config:    cfg,
		logger:    logger.With("component", "quiz_service"),
	}
}

// GenerateQuiz uses every stored summary regardless of record status, so
// failed videos never block a quiz. Extra questions are dropped.
func (s *quizServiceImpl) GenerateQuiz(
	ctx context.Context,
	playlistID uuid.UUID,
	count int,
) ([]domain.QuizQuestion, error) {
	if count == 0 {
		count = s.config.DefaultCount
	}
	if count < 0 || count > s.config.MaxCount {
		return nil, domain.ErrInvalidQuizSize
	}

	if _, err := s.playlists.GetByID(ctx, playlistID); err != nil {
		return nil, fmt.Errorf("failed to retrieve playlist: %w", err)
	}

	records, err := s.records.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	summaries := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.HasSummary() {
			summaries = append(summaries, strings.TrimSpace(rec.Summary))
		}
	}
	if len(summaries) == 0 {
		return nil, generation.ErrNothingToGenerate
	}

	log := s.logger.With("playlist_id", playlistID, "count", count, "summaries", len(summaries))

	raw, err := s.generator.GenerateQuiz(ctx, strings.Join(summaries, summarySeparator), count)
	if err != nil {
		log.Error("quiz generation call failed", "error", err)
		return nil, fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
	}

	parsed := generation.ParseQuizResponse(raw)
	questions, err := parsed.Quiz()
	if err != nil {
		log.Warn("quiz response rejected", "kind", parsed.Kind, "error", parsed.Err)
		return nil, err
	}

	if len(questions) > count {
		questions = questions[:count]
	}
	log.Info("quiz generated", "questions", len(questions))
	return questions, nil
}
