package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/events"
)

// summaryTaskCreator builds summary tasks for a pair.
type summaryTaskCreator interface {
	CreateTask(videoID string, playlistID uuid.UUID) (*SummaryTask, error)
}

// taskSubmitter accepts tasks for execution.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to handle task creation events and delegate them to the appropriate task factory.
type TaskFactoryEventHandler struct {
	taskFactory summaryTaskCreator
	taskRunner  taskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory summaryTaskCreator,
	taskRunner taskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent turns a summary request event into a submitted SummaryTask.
// A full queue is not an error: the record stays pending for recovery.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != events.TypeSummaryGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var req events.SummaryRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	t, err := h.taskFactory.CreateTask(req.VideoID, req.PlaylistID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"video_id", req.VideoID,
			"playlist_id", req.PlaylistID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, t); err != nil {
		if errors.Is(err, ErrQueueFull) {
			h.logger.Warn("task queue full, leaving record to recovery",
				"task_id", t.ID(),
				"video_id", req.VideoID,
				"playlist_id", req.PlaylistID)
			return nil
		}
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", t.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Debug("task submitted",
		"task_id", t.ID(),
		"video_id", req.VideoID,
		"playlist_id", req.PlaylistID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
