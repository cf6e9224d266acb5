package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// RecoveryInterval is how often the recovery sweep runs after startup.
	// Zero disables the periodic sweep.
	RecoveryInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:      2,
		RecoveryInterval: time.Minute,
	}
}

// ErrRunnerStopped is returned by Start once Stop has been called.
var ErrRunnerStopped = errors.New("task runner stopped")

// Recoverer re-enqueues persisted work that has not finished.
type Recoverer interface {
	// FinalizeExhausted marks records stranded at the attempt ceiling as
	// failed. It is only safe while no attempt can be in flight.
	FinalizeExhausted(ctx context.Context) (int64, error)
	Recover(ctx context.Context) (RecoveryReport, error)
}

// TaskRunner manages background task processing
type TaskRunner struct {
	queue      *TaskQueue
	recoverer  Recoverer
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewTaskRunner creates a new TaskRunner. recoverer may be nil, in which
// case no recovery runs.
func NewTaskRunner(
	queue *TaskQueue,
	recoverer Recoverer,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}

	logger = logger.With("component", "task_runner")
	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		queue:      queue,
		recoverer:  recoverer,
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue. A task whose key is already in
// flight is dropped silently.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	err := r.queue.Enqueue(task)
	if errors.Is(err, ErrDuplicateTask) {
		r.logger.DebugContext(ctx, "task already in flight",
			"task_id", task.ID(),
			"task_key", task.Key())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}
	return nil
}

// Start finalizes exhausted records, launches the workers, runs the startup
// recovery scan, and starts the periodic sweep. The runner stops when ctx is
// done or Stop is called; Stop waits for Start to return.
func (r *TaskRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRunnerStopped
	}
	if r.started {
		r.mu.Unlock()
		return errors.New("task runner already started")
	}
	r.started = true
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	go func() {
		select {
		case <-ctx.Done():
			r.cancelFunc()
		case <-r.ctx.Done():
		}
	}()

	// No worker has claimed anything yet, so a pending record at the ceiling
	// was left by an earlier process.
	if r.recoverer != nil {
		n, err := r.recoverer.FinalizeExhausted(r.ctx)
		if err != nil {
			return fmt.Errorf("failed to finalize exhausted records: %w", err)
		}
		if n > 0 {
			r.logger.Info("finalized exhausted records", "count", n)
		}
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)

	if r.recoverer == nil {
		return nil
	}

	if _, err := r.recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	if r.config.RecoveryInterval > 0 {
		r.wg.Add(1)
		go r.recoverySweep()
	}

	return nil
}

// Stop cancels pending retries, waits for running tasks to return, and
// closes the queue. Tasks still buffered are dropped; their records remain
// recoverable.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()

		r.cancelFunc()
		r.wg.Wait()
		r.queue.Close()
		r.logger.Info("task runner stopped")
	})
}

func (r *TaskRunner) recover() (RecoveryReport, error) {
	report, err := r.recoverer.Recover(r.ctx)
	if err != nil {
		return report, err
	}
	if report.Found > 0 {
		r.logger.Info("recovered unfinished tasks",
			"found", report.Found,
			"enqueued", report.Enqueued,
			"duplicates", report.Duplicates,
			"failed", report.Failed)
	}
	return report, nil
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	logger.Debug("processing task")

	err := task.Execute(r.ctx)

	if retry, ok := AsRetry(err); ok {
		logger.Info("task will be retried", "delay", retry.Delay, "error", retry.Err)
		r.scheduleRetry(task, retry.Delay)
		return
	}

	defer r.queue.Ack(task.Key())

	switch {
	case err == nil:
		logger.Debug("task finished", "status", task.Status())
	case r.ctx.Err() != nil && errors.Is(err, context.Canceled):
		logger.Info("task interrupted by shutdown")
	default:
		r.errHandler(task, err)
	}
}

// scheduleRetry re-delivers task after delay without holding a worker.
func (r *TaskRunner) scheduleRetry(task Task, delay time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-r.ctx.Done():
			r.queue.Ack(task.Key())
		case <-timer.C:
			if err := r.queue.Redeliver(task); err != nil {
				r.logger.Warn("failed to redeliver task, leaving it to recovery",
					"task_id", task.ID(),
					"task_key", task.Key(),
					"error", err)
				r.queue.Ack(task.Key())
			}
		}
	}()
}

// recoverySweep periodically re-runs recovery so records whose enqueue
// failed are picked up without a restart.
func (r *TaskRunner) recoverySweep() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.RecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.recover(); err != nil && r.ctx.Err() == nil {
				r.logger.Error("recovery sweep failed", "error", err)
			}
		}
	}
}
