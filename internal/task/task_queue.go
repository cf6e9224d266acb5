package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed   = errors.New("task queue is closed")
	ErrQueueFull     = errors.New("task queue is full")
	ErrDuplicateTask = errors.New("task with the same key is already in flight")
)

// TaskQueue is a buffered channel of tasks with in-flight de-duplication.
// A key stays in flight from enqueue until Ack, including while the task
// waits for a retry.
type TaskQueue struct {
	tasks  chan Task
	logger *slog.Logger

	// mu guards closed; senders hold it for reading so Close cannot race a send.
	mu     sync.RWMutex
	closed bool

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewTaskQueue creates a new task queue with the specified buffer size
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size <= 0 {
		size = 1
	}
	return &TaskQueue{
		tasks:    make(chan Task, size),
		logger:   logger.With("component", "task_queue"),
		inflight: make(map[string]struct{}),
	}
}

// Enqueue adds a task without blocking.
// Returns ErrDuplicateTask, ErrQueueFull, or ErrQueueClosed when the task is not queued.
func (q *TaskQueue) Enqueue(task Task) error {
	return q.enqueue(context.Background(), task, false)
}

// EnqueueWait adds a task, waiting for buffer space until ctx is done.
func (q *TaskQueue) EnqueueWait(ctx context.Context, task Task) error {
	return q.enqueue(ctx, task, true)
}

func (q *TaskQueue) enqueue(ctx context.Context, task Task, wait bool) error {
	if !q.claim(task.Key()) {
		return ErrDuplicateTask
	}
	if err := q.send(ctx, task, wait); err != nil {
		q.Ack(task.Key())
		return err
	}
	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_key", task.Key(),
		"queue_len", len(q.tasks),
		"queue_cap", cap(q.tasks))
	return nil
}

// Redeliver puts an in-flight task back on the queue without the duplicate
// check. The caller keeps ownership of the key and must Ack it if this fails.
func (q *TaskQueue) Redeliver(task Task) error {
	return q.send(context.Background(), task, false)
}

func (q *TaskQueue) send(ctx context.Context, task Task, wait bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	if wait {
		select {
		case q.tasks <- task:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

func (q *TaskQueue) claim(key string) bool {
	q.inflightMu.Lock()
	defer q.inflightMu.Unlock()
	if _, ok := q.inflight[key]; ok {
		return false
	}
	q.inflight[key] = struct{}{}
	return true
}

// Ack releases key so a task with the same key may be enqueued again.
func (q *TaskQueue) Ack(key string) {
	q.inflightMu.Lock()
	delete(q.inflight, key)
	q.inflightMu.Unlock()
}

// InFlight returns the number of keys currently held.
func (q *TaskQueue) InFlight() int {
	q.inflightMu.Lock()
	defer q.inflightMu.Unlock()
	return len(q.inflight)
}

// Close closes the task queue, preventing further task submission.
// Senders blocked in EnqueueWait must be released through their context first.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
		q.logger.Info("task queue closed")
	}
}

// GetChannel returns a read-only channel for consuming tasks
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}
