package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/store"
)

// persistTimeout bounds the final write of an attempt, which runs even after
// the runner has been cancelled.
const persistTimeout = 5 * time.Second

// summaryTaskPayload is the JSON form of a summary job.
type summaryTaskPayload struct {
	VideoID    string    `json:"video_id"`
	PlaylistID uuid.UUID `json:"playlist_id"`
}

// SummaryTask summarizes one video of one playlist and records the outcome
// on its enrichment record. Each Execute call makes at most one attempt.
type SummaryTask struct {
	id         uuid.UUID
	videoID    string
	playlistID uuid.UUID
	records    store.EnrichmentStore
	summarizer generation.Summarizer
	backoff    time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

// NewSummaryTask creates a summary task for the (videoID, playlistID) pair.
func NewSummaryTask(
	videoID string,
	playlistID uuid.UUID,
	records store.EnrichmentStore,
	summarizer generation.Summarizer,
	backoff time.Duration,
	logger *slog.Logger,
) (*SummaryTask, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, domain.ErrEmptyVideoID
	}
	if playlistID == uuid.Nil {
		return nil, domain.ErrEmptyPlaylistID
	}
	if records == nil {
		return nil, errors.New("records cannot be nil")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &SummaryTask{
		id:         uuid.New(),
		videoID:    videoID,
		playlistID: playlistID,
		records:    records,
		summarizer: summarizer,
		backoff:    backoff,
		logger: logger.With(
			"task_type", TaskTypeSummaryGeneration,
			"video_id", videoID,
			"playlist_id", playlistID,
		),
		status: TaskStatusPending,
	}, nil
}

// SummaryTaskKey is the de-duplication key of the job for a pair.
func SummaryTaskKey(videoID string, playlistID uuid.UUID) string {
	return TaskTypeSummaryGeneration + ":" + playlistID.String() + ":" + videoID
}

// ID returns the task's unique identifier
func (t *SummaryTask) ID() uuid.UUID { return t.id }

// Key returns the de-duplication key of the task.
func (t *SummaryTask) Key() string { return SummaryTaskKey(t.videoID, t.playlistID) }

// Type returns the task type identifier
func (t *SummaryTask) Type() string { return TaskTypeSummaryGeneration }

// VideoID returns the video this task summarizes.
func (t *SummaryTask) VideoID() string { return t.videoID }

// PlaylistID returns the playlist the video belongs to.
func (t *SummaryTask) PlaylistID() uuid.UUID { return t.playlistID }

// Payload returns the task data as JSON.
func (t *SummaryTask) Payload() []byte {
	payload, err := json.Marshal(summaryTaskPayload{VideoID: t.videoID, PlaylistID: t.playlistID})
	if err != nil {
		t.logger.Error("failed to marshal payload", "error", err)
		return []byte("{}")
	}
	return payload
}

// Status returns the current task status
func (t *SummaryTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *SummaryTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Execute makes one summarization attempt.
//
// Jobs for missing, completed, or exhausted records are discarded. The
// attempt counter is incremented before the external call, so an attempt
// interrupted by a crash is still counted. A failed attempt below the
// ceiling returns a *RetryError carrying the backoff; the final failed
// attempt marks the record failed and returns nil.
func (t *SummaryTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	rec, err := t.records.Get(ctx, t.videoID, t.playlistID)
	if err != nil {
		if errors.Is(err, store.ErrEnrichmentRecordNotFound) {
			t.logger.Debug("discarding job for missing record")
			t.setStatus(TaskStatusCompleted)
			return nil
		}
		t.setStatus(TaskStatusPending)
		return fmt.Errorf("failed to load enrichment record: %w", err)
	}

	if !rec.IsRecoverable() {
		t.logger.Debug("discarding job for finished record",
			"status", rec.Status,
			"attempts", rec.Attempts)
		t.setStatus(TaskStatusCompleted)
		return nil
	}

	attempt, err := t.records.ClaimAttempt(ctx, t.videoID, t.playlistID)
	if err != nil {
		if errors.Is(err, store.ErrAttemptNotClaimable) ||
			errors.Is(err, store.ErrEnrichmentRecordNotFound) {
			t.logger.Debug("discarding job, no attempt available", "reason", err)
			t.setStatus(TaskStatusCompleted)
			return nil
		}
		t.setStatus(TaskStatusPending)
		return fmt.Errorf("failed to claim attempt: %w", err)
	}

	logger := t.logger.With("attempt", attempt)
	logger.Info("summarizing video")

	summary, genErr := t.summarizer.Summarize(ctx, t.videoID)
	if genErr == nil && strings.TrimSpace(summary) == "" {
		genErr = generation.ErrEmptyResponse
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if genErr == nil {
		err := t.records.UpdateStatus(persistCtx, t.videoID, t.playlistID, domain.StatusUpdate{
			Summary:  &summary,
			Status:   domain.EnrichmentStatusCompleted,
			Attempts: attempt,
		})
		if err != nil && !errors.Is(err, store.ErrRecordFinalized) {
			t.setStatus(TaskStatusFailed)
			return fmt.Errorf("failed to store summary: %w", err)
		}
		logger.Info("video summarized")
		t.setStatus(TaskStatusCompleted)
		return nil
	}

	if ctx.Err() != nil {
		// The record keeps its counted attempt and stays pending.
		t.setStatus(TaskStatusPending)
		return ctx.Err()
	}

	if attempt < domain.MaxSummaryAttempts {
		t.setStatus(TaskStatusRetrying)
		logger.Warn("summary attempt failed", "error", genErr)
		return &RetryError{Delay: t.backoff, Err: genErr}
	}

	err = t.records.UpdateStatus(persistCtx, t.videoID, t.playlistID, domain.StatusUpdate{
		Status:   domain.EnrichmentStatusFailed,
		Attempts: attempt,
	})
	if err != nil && !errors.Is(err, store.ErrRecordFinalized) {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to mark record failed: %w", err)
	}

	logger.Warn("summary attempts exhausted", "error", genErr)
	t.setStatus(TaskStatusFailed)
	return nil
}
