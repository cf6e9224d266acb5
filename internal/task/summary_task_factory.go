package task

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/store"
)

// SummaryTaskFactory creates SummaryTask instances sharing one set of dependencies.
type SummaryTaskFactory struct {
	records    store.EnrichmentStore
	summarizer generation.Summarizer
	backoff    time.Duration
	logger     *slog.Logger
}

// NewSummaryTaskFactory creates a factory. backoff is the delay before a
// failed attempt is retried; the summarizer bounds its own calls.
func NewSummaryTaskFactory(
	records store.EnrichmentStore,
	summarizer generation.Summarizer,
	backoff time.Duration,
	logger *slog.Logger,
) *SummaryTaskFactory {
	return &SummaryTaskFactory{
		records:    records,
		summarizer: summarizer,
		backoff:    backoff,
		logger:     logger,
	}
}

// CreateTask creates a task for the given pair.
func (f *SummaryTaskFactory) CreateTask(videoID string, playlistID uuid.UUID) (*SummaryTask, error) {
	return NewSummaryTask(
		videoID,
		playlistID,
		f.records,
		f.summarizer,
		f.backoff,
		f.logger,
	)
}
