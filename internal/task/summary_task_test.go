package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBackoff = 10 * time.Second

func newTestSummaryTask(
	t *testing.T,
	records *memoryRecords,
	summarizer *fakeSummarizer,
	videoID string,
	playlistID uuid.UUID,
) *SummaryTask {
	t.Helper()
	factory := NewSummaryTaskFactory(records, summarizer, testBackoff, discardLogger())
	task, err := factory.CreateTask(videoID, playlistID)
	require.NoError(t, err)
	return task
}

func TestNewSummaryTask_Validation(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	summarizer := newFakeSummarizer(nil)
	logger := discardLogger()

	_, err := NewSummaryTask("", uuid.New(), records, summarizer, 0, logger)
	assert.ErrorIs(t, err, domain.ErrEmptyVideoID)

	_, err = NewSummaryTask("v", uuid.Nil, records, summarizer, 0, logger)
	assert.ErrorIs(t, err, domain.ErrEmptyPlaylistID)

	_, err = NewSummaryTask("v", uuid.New(), nil, summarizer, 0, logger)
	assert.Error(t, err)

	_, err = NewSummaryTask("v", uuid.New(), records, nil, 0, logger)
	assert.Error(t, err)

	task, err := NewSummaryTask("v", uuid.New(), records, summarizer, 0, logger)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSummaryGeneration, task.Type())
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.JSONEq(t,
		`{"video_id":"v","playlist_id":"`+task.PlaylistID().String()+`"}`,
		string(task.Payload()))
}

func TestSummaryTask_Success(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	_, err := records.CreateOrGet(context.Background(), "vid", playlistID)
	require.NoError(t, err)

	summarizer := newFakeSummarizer(func(_ context.Context, _ string, _ int) (string, error) {
		return "a short summary", nil
	})
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

	require.NoError(t, task.Execute(context.Background()))

	rec := records.snapshot(t, "vid", playlistID)
	assert.Equal(t, domain.EnrichmentStatusCompleted, rec.Status)
	assert.Equal(t, "a short summary", rec.Summary)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, TaskStatusCompleted, task.Status())
}

func TestSummaryTask_DiscardsFinishedRecords(t *testing.T) {
	t.Parallel()

	playlistID := uuid.New()
	tests := []struct {
		name   string
		record *domain.EnrichmentRecord
	}{
		{name: "missing"},
		{
			name: "completed",
			record: &domain.EnrichmentRecord{
				VideoID: "vid", PlaylistID: playlistID,
				Status: domain.EnrichmentStatusCompleted, Summary: "done", Attempts: 1,
			},
		},
		{
			name: "exhausted",
			record: &domain.EnrichmentRecord{
				VideoID: "vid", PlaylistID: playlistID,
				Status: domain.EnrichmentStatusFailed, Attempts: 3,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			records := newMemoryRecords()
			if tc.record != nil {
				records.put(*tc.record)
			}
			summarizer := newFakeSummarizer(func(context.Context, string, int) (string, error) {
				return "unused", nil
			})
			task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

			require.NoError(t, task.Execute(context.Background()))
			assert.Zero(t, summarizer.Calls("vid"))

			if tc.record != nil {
				rec := records.snapshot(t, "vid", playlistID)
				assert.Equal(t, tc.record.Status, rec.Status)
				assert.Equal(t, tc.record.Attempts, rec.Attempts)
			}
		})
	}
}

func TestSummaryTask_FailureBelowCeilingAsksForRetry(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	_, err := records.CreateOrGet(context.Background(), "vid", playlistID)
	require.NoError(t, err)

	summarizer := newFakeSummarizer(func(context.Context, string, int) (string, error) {
		return "", nil
	})
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

	err = task.Execute(context.Background())
	retry, ok := AsRetry(err)
	require.True(t, ok, "expected retry error, got %v", err)
	assert.Equal(t, testBackoff, retry.Delay)
	assert.ErrorIs(t, err, generation.ErrEmptyResponse)

	rec := records.snapshot(t, "vid", playlistID)
	assert.Equal(t, domain.EnrichmentStatusPending, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, TaskStatusRetrying, task.Status())
}

func TestSummaryTask_FinalFailureMarksFailed(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	records.put(domain.EnrichmentRecord{
		VideoID: "vid", PlaylistID: playlistID,
		Status: domain.EnrichmentStatusPending, Attempts: 2,
	})

	summarizer := newFakeSummarizer(func(context.Context, string, int) (string, error) {
		return "", errors.New("upstream unavailable")
	})
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

	require.NoError(t, task.Execute(context.Background()))

	rec := records.snapshot(t, "vid", playlistID)
	assert.Equal(t, domain.EnrichmentStatusFailed, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, TaskStatusFailed, task.Status())
}

func TestSummaryTask_ResumesAttemptCounter(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	records.put(domain.EnrichmentRecord{
		VideoID: "vid", PlaylistID: playlistID,
		Status: domain.EnrichmentStatusPending, Attempts: 1,
	})

	summarizer := newFakeSummarizer(func(context.Context, string, int) (string, error) {
		return "", nil
	})
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

	_, ok := AsRetry(task.Execute(context.Background()))
	require.True(t, ok)
	assert.Equal(t, 2, records.snapshot(t, "vid", playlistID).Attempts)
}

func TestSummaryTask_CancelledKeepsRecordPending(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	records.put(domain.EnrichmentRecord{
		VideoID: "vid", PlaylistID: playlistID,
		Status: domain.EnrichmentStatusPending, Attempts: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	summarizer := newFakeSummarizer(func(ctx context.Context, _ string, _ int) (string, error) {
		cancel()
		return "", ctx.Err()
	})
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)

	err := task.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	rec := records.snapshot(t, "vid", playlistID)
	assert.Equal(t, domain.EnrichmentStatusPending, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
}

func TestSummaryTask_StoreErrors(t *testing.T) {
	t.Parallel()

	playlistID := uuid.New()
	summarizer := newFakeSummarizer(func(context.Context, string, int) (string, error) {
		return "summary", nil
	})

	records := newMemoryRecords()
	records.getErr = errors.New("db down")
	task := newTestSummaryTask(t, records, summarizer, "vid", playlistID)
	assert.ErrorContains(t, task.Execute(context.Background()), "failed to load enrichment record")

	records = newMemoryRecords()
	_, err := records.CreateOrGet(context.Background(), "vid", playlistID)
	require.NoError(t, err)
	records.claimErr = errors.New("db down")
	task = newTestSummaryTask(t, records, summarizer, "vid", playlistID)
	assert.ErrorContains(t, task.Execute(context.Background()), "failed to claim attempt")
	assert.Zero(t, summarizer.Calls("vid"))
}
