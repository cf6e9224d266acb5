package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TypeSummaryGeneration requests a summary for one video of one playlist.
const TypeSummaryGeneration = "summary_generation"

// TaskRequestEvent represents a request to create a background task.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates a TaskRequestEvent with the given type and JSON payload.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SummaryRequest is the payload of a TypeSummaryGeneration event.
type SummaryRequest struct {
	VideoID    string    `json:"video_id"`
	PlaylistID uuid.UUID `json:"playlist_id"`
}

// ErrInvalidSummaryRequest is returned for payloads missing an identifier.
var ErrInvalidSummaryRequest = errors.New("summary request requires video and playlist IDs")

// Validate checks that both identifiers are present.
func (r SummaryRequest) Validate() error {
	if strings.TrimSpace(r.VideoID) == "" || r.PlaylistID == uuid.Nil {
		return ErrInvalidSummaryRequest
	}
	return nil
}

// NewSummaryRequestEvent builds the event asking for one video summary.
func NewSummaryRequestEvent(videoID string, playlistID uuid.UUID) (*TaskRequestEvent, error) {
	req := SummaryRequest{VideoID: videoID, PlaylistID: playlistID}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return NewTaskRequestEvent(TypeSummaryGeneration, req)
}

// EventHandler processes events delivered by an emitter.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *TaskRequestEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events to whichever handlers are subscribed.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
