package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewEnrichmentRecord(t *testing.T) {
	t.Parallel()

	playlistID := uuid.New()
	rec, err := NewEnrichmentRecord("vid-1", playlistID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Status != EnrichmentStatusPending {
		t.Errorf("Expected status %s, got %s", EnrichmentStatusPending, rec.Status)
	}
	if rec.Attempts != 0 {
		t.Errorf("Expected 0 attempts, got %d", rec.Attempts)
	}
	if rec.PlaylistID != playlistID {
		t.Errorf("Expected playlist %s, got %s", playlistID, rec.PlaylistID)
	}

	if _, err := NewEnrichmentRecord("  ", playlistID); err != ErrEmptyVideoID {
		t.Errorf("Expected error %v, got %v", ErrEmptyVideoID, err)
	}
	if _, err := NewEnrichmentRecord("vid-1", uuid.Nil); err != ErrEmptyPlaylistID {
		t.Errorf("Expected error %v, got %v", ErrEmptyPlaylistID, err)
	}
}

func TestEnrichmentRecordValidate(t *testing.T) {
	t.Parallel()

	base := EnrichmentRecord{
		VideoID:    "vid-1",
		PlaylistID: uuid.New(),
		Status:     EnrichmentStatusPending,
	}

	tests := []struct {
		name   string
		mutate func(r *EnrichmentRecord)
		want   error
	}{
		{"valid pending", func(r *EnrichmentRecord) {}, nil},
		{"attempts at ceiling", func(r *EnrichmentRecord) { r.Attempts = 3 }, nil},
		{"attempts above ceiling", func(r *EnrichmentRecord) { r.Attempts = 4 }, ErrAttemptsOutOfRange},
		{"negative attempts", func(r *EnrichmentRecord) { r.Attempts = -1 }, ErrAttemptsOutOfRange},
		{"unknown status", func(r *EnrichmentRecord) { r.Status = "processing" }, ErrInvalidEnrichmentStatus},
		{"completed without summary", func(r *EnrichmentRecord) {
			r.Status = EnrichmentStatusCompleted
			r.Summary = "   "
		}, ErrCompletedWithoutSummary},
		{"completed with summary", func(r *EnrichmentRecord) {
			r.Status = EnrichmentStatusCompleted
			r.Summary = "A short summary."
			r.Attempts = 1
		}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			tc.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Expected error %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEnrichmentRecordIsRecoverable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   EnrichmentStatus
		attempts int
		want     bool
	}{
		{EnrichmentStatusPending, 0, true},
		{EnrichmentStatusPending, 2, true},
		{EnrichmentStatusFailed, 1, true},
		{EnrichmentStatusFailed, 3, false},
		{EnrichmentStatusPending, 3, false},
		{EnrichmentStatusCompleted, 1, false},
	}

	for _, tc := range tests {
		r := EnrichmentRecord{Status: tc.status, Attempts: tc.attempts}
		if got := r.IsRecoverable(); got != tc.want {
			t.Errorf("IsRecoverable(%s, %d) = %v, want %v", tc.status, tc.attempts, got, tc.want)
		}
	}
}

func TestStatusUpdateValidate(t *testing.T) {
	t.Parallel()

	summary := "summary text"
	empty := ""

	if err := (StatusUpdate{Status: EnrichmentStatusCompleted, Summary: &summary, Attempts: 1}).Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := (StatusUpdate{Status: EnrichmentStatusCompleted, Summary: &empty, Attempts: 1}).Validate(); err != ErrCompletedWithoutSummary {
		t.Errorf("Expected error %v, got %v", ErrCompletedWithoutSummary, err)
	}
	if err := (StatusUpdate{Status: EnrichmentStatusCompleted, Attempts: 1}).Validate(); err != ErrCompletedWithoutSummary {
		t.Errorf("Expected error %v, got %v", ErrCompletedWithoutSummary, err)
	}
	if err := (StatusUpdate{Status: EnrichmentStatusFailed, Attempts: 4}).Validate(); err != ErrAttemptsOutOfRange {
		t.Errorf("Expected error %v, got %v", ErrAttemptsOutOfRange, err)
	}
}
