package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/edushare-api/internal/store"
)

// RecoveryReport summarizes one recovery pass.
type RecoveryReport struct {
	// Found counts records eligible for another attempt.
	Found      int
	Enqueued   int
	Duplicates int
	Failed     int
}

// RecoveryScanner re-enqueues every enrichment record that is pending or
// failed with attempts to spare. Exhausted records are never resurrected.
type RecoveryScanner struct {
	records store.EnrichmentStore
	factory *SummaryTaskFactory
	queue   *TaskQueue
	logger  *slog.Logger
}

// NewRecoveryScanner creates a scanner that feeds queue.
func NewRecoveryScanner(
	records store.EnrichmentStore,
	factory *SummaryTaskFactory,
	queue *TaskQueue,
	logger *slog.Logger,
) *RecoveryScanner {
	return &RecoveryScanner{
		records: records,
		factory: factory,
		queue:   queue,
		logger:  logger.With("component", "recovery_scanner"),
	}
}

// FinalizeExhausted marks pending records with no attempts left as failed.
// A pending record at the ceiling is either stranded by a crash or has its
// last attempt in flight, so this must only run before workers start.
func (s *RecoveryScanner) FinalizeExhausted(ctx context.Context) (int64, error) {
	return s.records.FailExhausted(ctx)
}

// Recover runs one pass. It waits for queue space, so it should run with
// workers already consuming.
func (s *RecoveryScanner) Recover(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport

	recs, err := s.records.ListRecoverable(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list recoverable records: %w", err)
	}
	report.Found = len(recs)

	for _, rec := range recs {
		t, err := s.factory.CreateTask(rec.VideoID, rec.PlaylistID)
		if err != nil {
			report.Failed++
			s.logger.Error("failed to create recovery task",
				"video_id", rec.VideoID,
				"playlist_id", rec.PlaylistID,
				"error", err)
			continue
		}

		err = s.queue.EnqueueWait(ctx, t)
		switch {
		case err == nil:
			report.Enqueued++
		case errors.Is(err, ErrDuplicateTask):
			report.Duplicates++
		case ctx.Err() != nil, errors.Is(err, ErrQueueClosed):
			return report, err
		default:
			report.Failed++
			s.logger.Error("failed to enqueue recovery task",
				"video_id", rec.VideoID,
				"playlist_id", rec.PlaylistID,
				"error", err)
		}
	}

	return report, nil
}
