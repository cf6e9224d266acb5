package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRunner(t *testing.T, queue *TaskQueue, recoverer Recoverer, workers int) *TaskRunner {
	t.Helper()
	runner := NewTaskRunner(queue, recoverer, TaskRunnerConfig{WorkerCount: workers}, discardLogger())
	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(runner.Stop)
	return runner
}

func TestTaskRunner_ExecutesAndAcks(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(4, discardLogger())
	runner := startRunner(t, queue, nil, 2)

	var ran atomic.Int32
	task := newStubTask("k", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	require.NoError(t, runner.Submit(context.Background(), task))

	require.Eventually(t, func() bool { return ran.Load() == 1 && queue.InFlight() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestTaskRunner_SubmitDuplicateIsNoop(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(4, discardLogger())
	runner := NewTaskRunner(queue, nil, TaskRunnerConfig{WorkerCount: 1}, discardLogger())

	require.NoError(t, runner.Submit(context.Background(), newStubTask("k", nil)))
	require.NoError(t, runner.Submit(context.Background(), newStubTask("k", nil)))
	assert.Len(t, queue.GetChannel(), 1)
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(4, discardLogger())
	runner := NewTaskRunner(queue, nil, TaskRunnerConfig{WorkerCount: 1}, discardLogger())

	failures := make(chan error, 1)
	runner.SetErrorHandler(func(_ Task, err error) { failures <- err })
	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(runner.Stop)

	boom := errors.New("boom")
	require.NoError(t, runner.Submit(context.Background(), newStubTask("k", func(context.Context) error {
		return boom
	})))

	select {
	case err := <-failures:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
	require.Eventually(t, func() bool { return queue.InFlight() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTaskRunner_RetryReleasesWorker(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(4, discardLogger())
	runner := startRunner(t, queue, nil, 1)

	var attempts atomic.Int32
	retried := make(chan struct{})
	slow := newStubTask("slow", func(context.Context) error {
		if attempts.Add(1) == 1 {
			return &RetryError{Delay: 300 * time.Millisecond, Err: errors.New("try later")}
		}
		close(retried)
		return nil
	})
	fastDone := make(chan struct{})
	fast := newStubTask("fast", func(context.Context) error {
		close(fastDone)
		return nil
	})

	require.NoError(t, runner.Submit(context.Background(), slow))
	require.NoError(t, runner.Submit(context.Background(), fast))

	select {
	case <-fastDone:
	case <-retried:
		t.Fatal("retry ran before the other task")
	case <-time.After(time.Second):
		t.Fatal("second task blocked behind the backoff")
	}

	// the key stays held while the retry is pending
	assert.ErrorIs(t, queue.Enqueue(newStubTask("slow", nil)), ErrDuplicateTask)

	select {
	case <-retried:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not redelivered")
	}
	require.Eventually(t, func() bool { return queue.InFlight() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTaskRunner_StopCancelsPendingRetry(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(4, discardLogger())
	runner := NewTaskRunner(queue, nil, TaskRunnerConfig{WorkerCount: 1}, discardLogger())
	require.NoError(t, runner.Start(context.Background()))

	var runs atomic.Int32
	require.NoError(t, runner.Submit(context.Background(), newStubTask("k", func(context.Context) error {
		runs.Add(1)
		return &RetryError{Delay: time.Hour, Err: errors.New("later")}
	})))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop waited for the backoff timer")
	}
	assert.Equal(t, 0, queue.InFlight())
	assert.ErrorIs(t, runner.Submit(context.Background(), newStubTask("x", nil)), ErrQueueClosed)
}

func TestTaskRunner_StartTwice(t *testing.T) {
	t.Parallel()

	runner := startRunner(t, NewTaskQueue(1, discardLogger()), nil, 1)
	assert.Error(t, runner.Start(context.Background()))
}

func TestTaskRunner_StartAfterStop(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, discardLogger())
	runner := NewTaskRunner(queue, nil, TaskRunnerConfig{WorkerCount: 1}, discardLogger())
	runner.Stop()

	assert.ErrorIs(t, runner.Start(context.Background()), ErrRunnerStopped)
	assert.ErrorIs(t, runner.Submit(context.Background(), newStubTask("x", nil)), ErrQueueClosed)
}

// Five videos: A never gets a summary, B to E succeed on the first attempt.
func TestTaskRunner_PlaylistScenario(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	videos := []string{"A", "B", "C", "D", "E"}
	for _, v := range videos {
		_, err := records.CreateOrGet(context.Background(), v, playlistID)
		require.NoError(t, err)
	}

	summarizer := newFakeSummarizer(func(_ context.Context, videoID string, _ int) (string, error) {
		if videoID == "A" {
			return "", nil
		}
		return "summary of " + videoID, nil
	})

	queue := NewTaskQueue(8, discardLogger())
	factory := NewSummaryTaskFactory(records, summarizer, 10*time.Millisecond, discardLogger())
	runner := startRunner(t, queue, nil, 2)

	for _, v := range videos {
		task, err := factory.CreateTask(v, playlistID)
		require.NoError(t, err)
		require.NoError(t, runner.Submit(context.Background(), task))
	}

	require.Eventually(t, func() bool {
		counts, _ := records.CountByStatus(context.Background(), &playlistID)
		return counts[domain.EnrichmentStatusCompleted] == 4 && counts[domain.EnrichmentStatusFailed] == 1
	}, 5*time.Second, 10*time.Millisecond)

	a := records.snapshot(t, "A", playlistID)
	assert.Equal(t, domain.EnrichmentStatusFailed, a.Status)
	assert.Equal(t, 3, a.Attempts)
	assert.Equal(t, 3, summarizer.Calls("A"))

	for _, v := range videos[1:] {
		rec := records.snapshot(t, v, playlistID)
		assert.Equal(t, domain.EnrichmentStatusCompleted, rec.Status, v)
		assert.Equal(t, 1, rec.Attempts, v)
		assert.Equal(t, "summary of "+v, rec.Summary, v)
	}

	require.Eventually(t, func() bool { return queue.InFlight() == 0 }, time.Second, 5*time.Millisecond)
}

// Records stranded by a previous process finish once the runner starts.
func TestTaskRunner_StartRecoversStrandedRecords(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	records.put(domain.EnrichmentRecord{VideoID: "A", PlaylistID: playlistID, Status: domain.EnrichmentStatusPending, Attempts: 2})
	records.put(domain.EnrichmentRecord{VideoID: "B", PlaylistID: playlistID, Status: domain.EnrichmentStatusFailed, Attempts: 3})

	summarizer := newFakeSummarizer(func(_ context.Context, videoID string, _ int) (string, error) {
		return "summary of " + videoID, nil
	})
	queue := NewTaskQueue(1, discardLogger())
	factory := NewSummaryTaskFactory(records, summarizer, 10*time.Millisecond, discardLogger())
	scanner := NewRecoveryScanner(records, factory, queue, discardLogger())

	startRunner(t, queue, scanner, 1)

	require.Eventually(t, func() bool {
		rec, err := records.Get(context.Background(), "A", playlistID)
		return err == nil && rec.Status == domain.EnrichmentStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 3, records.snapshot(t, "A", playlistID).Attempts)
	assert.Equal(t, 0, summarizer.Calls("B"))
}

// The last attempt is still running when the sweep fires; the record must
// stay pending until that attempt settles it.
func TestTaskRunner_SweepDoesNotFinalizeRunningAttempt(t *testing.T) {
	t.Parallel()

	records := newMemoryRecords()
	playlistID := uuid.New()
	records.put(domain.EnrichmentRecord{VideoID: "A", PlaylistID: playlistID, Status: domain.EnrichmentStatusPending, Attempts: 2})

	started := make(chan struct{})
	release := make(chan struct{})
	summarizer := newFakeSummarizer(func(ctx context.Context, videoID string, _ int) (string, error) {
		close(started)
		select {
		case <-release:
			return "summary of " + videoID, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	queue := NewTaskQueue(1, discardLogger())
	factory := NewSummaryTaskFactory(records, summarizer, 10*time.Millisecond, discardLogger())
	scanner := NewRecoveryScanner(records, factory, queue, discardLogger())

	runner := NewTaskRunner(queue, scanner, TaskRunnerConfig{WorkerCount: 1, RecoveryInterval: 20 * time.Millisecond}, discardLogger())
	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(runner.Stop)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("summary attempt never started")
	}

	// several sweeps pass while the attempt is blocked
	time.Sleep(100 * time.Millisecond)
	mid := records.snapshot(t, "A", playlistID)
	assert.Equal(t, domain.EnrichmentStatusPending, mid.Status)
	assert.Equal(t, 3, mid.Attempts)

	close(release)
	require.Eventually(t, func() bool {
		rec, err := records.Get(context.Background(), "A", playlistID)
		return err == nil && rec.IsCompleted()
	}, 2*time.Second, 5*time.Millisecond)

	final := records.snapshot(t, "A", playlistID)
	assert.Equal(t, 3, final.Attempts)
	assert.Equal(t, "summary of A", final.Summary)
	assert.Equal(t, 1, summarizer.Calls("A"))
}
