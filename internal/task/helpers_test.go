package task

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordKey struct {
	videoID    string
	playlistID uuid.UUID
}

// memoryRecords is an in-memory EnrichmentStore with the same atomic
// semantics as the SQL implementation.
type memoryRecords struct {
	mu      sync.Mutex
	records map[recordKey]*domain.EnrichmentRecord

	getErr   error
	claimErr error
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[recordKey]*domain.EnrichmentRecord)}
}

var _ store.EnrichmentStore = (*memoryRecords)(nil)

func (m *memoryRecords) put(rec domain.EnrichmentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey{rec.VideoID, rec.PlaylistID}] = &rec
}

func (m *memoryRecords) snapshot(t *testing.T, videoID string, playlistID uuid.UUID) domain.EnrichmentRecord {
	t.Helper()
	rec, err := m.Get(context.Background(), videoID, playlistID)
	if err != nil {
		t.Fatalf("Get(%s): %v", videoID, err)
	}
	return *rec
}

func (m *memoryRecords) CreateOrGet(_ context.Context, videoID string, playlistID uuid.UUID) (*domain.EnrichmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := recordKey{videoID, playlistID}
	if rec, ok := m.records[k]; ok {
		cp := *rec
		return &cp, nil
	}
	rec, err := domain.NewEnrichmentRecord(videoID, playlistID)
	if err != nil {
		return nil, err
	}
	m.records[k] = rec
	cp := *rec
	return &cp, nil
}

func (m *memoryRecords) Get(_ context.Context, videoID string, playlistID uuid.UUID) (*domain.EnrichmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[recordKey{videoID, playlistID}]
	if !ok {
		return nil, store.ErrEnrichmentRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memoryRecords) ClaimAttempt(_ context.Context, videoID string, playlistID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return 0, m.claimErr
	}
	rec, ok := m.records[recordKey{videoID, playlistID}]
	if !ok {
		return 0, store.ErrEnrichmentRecordNotFound
	}
	if rec.IsCompleted() || rec.IsExhausted() {
		return 0, store.ErrAttemptNotClaimable
	}
	rec.Attempts++
	rec.Status = domain.EnrichmentStatusPending
	return rec.Attempts, nil
}

func (m *memoryRecords) UpdateStatus(_ context.Context, videoID string, playlistID uuid.UUID, update domain.StatusUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey{videoID, playlistID}]
	if !ok {
		return store.ErrEnrichmentRecordNotFound
	}
	if rec.IsCompleted() || (rec.Status == domain.EnrichmentStatusFailed && rec.IsExhausted()) {
		return store.ErrRecordFinalized
	}
	rec.Status = update.Status
	rec.Attempts = max(rec.Attempts, update.Attempts)
	if update.Summary != nil {
		rec.Summary = *update.Summary
	}
	return nil
}

func (m *memoryRecords) ListByPlaylist(_ context.Context, playlistID uuid.UUID) ([]*domain.EnrichmentRecord, error) {
	return m.filter(func(r *domain.EnrichmentRecord) bool { return r.PlaylistID == playlistID }), nil
}

func (m *memoryRecords) ListRecoverable(context.Context) ([]*domain.EnrichmentRecord, error) {
	return m.filter((*domain.EnrichmentRecord).IsRecoverable), nil
}

func (m *memoryRecords) FailExhausted(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.records {
		if rec.Status == domain.EnrichmentStatusPending && rec.IsExhausted() {
			rec.Status = domain.EnrichmentStatusFailed
			n++
		}
	}
	return n, nil
}

func (m *memoryRecords) CountByStatus(_ context.Context, playlistID *uuid.UUID) (map[domain.EnrichmentStatus]int, error) {
	counts := map[domain.EnrichmentStatus]int{}
	for _, rec := range m.filter(func(r *domain.EnrichmentRecord) bool {
		return playlistID == nil || r.PlaylistID == *playlistID
	}) {
		counts[rec.Status]++
	}
	return counts, nil
}

func (m *memoryRecords) DeleteByPlaylist(_ context.Context, playlistID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.records {
		if k.playlistID == playlistID {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryRecords) WithTx(*sql.Tx) store.EnrichmentStore { return m }

func (m *memoryRecords) filter(keep func(*domain.EnrichmentRecord) bool) []*domain.EnrichmentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.EnrichmentRecord
	for _, rec := range m.records {
		if keep(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out
}

// fakeSummarizer returns results from SummarizeFn and counts calls per video.
type fakeSummarizer struct {
	mu          sync.Mutex
	calls       map[string]int
	SummarizeFn func(ctx context.Context, videoID string, call int) (string, error)
}

func newFakeSummarizer(fn func(ctx context.Context, videoID string, call int) (string, error)) *fakeSummarizer {
	return &fakeSummarizer{calls: make(map[string]int), SummarizeFn: fn}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, videoID string) (string, error) {
	f.mu.Lock()
	f.calls[videoID]++
	call := f.calls[videoID]
	f.mu.Unlock()
	return f.SummarizeFn(ctx, videoID, call)
}

func (f *fakeSummarizer) Calls(videoID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[videoID]
}

// stubTask is a minimal Task driven by execFn.
type stubTask struct {
	id     uuid.UUID
	key    string
	execFn func(ctx context.Context) error
}

func newStubTask(key string, execFn func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), key: key, execFn: execFn}
}

func (s *stubTask) ID() uuid.UUID      { return s.id }
func (s *stubTask) Key() string        { return s.key }
func (s *stubTask) Type() string       { return "stub" }
func (s *stubTask) Payload() []byte    { return nil }
func (s *stubTask) Status() TaskStatus { return TaskStatusPending }
func (s *stubTask) Execute(ctx context.Context) error {
	if s.execFn == nil {
		return nil
	}
	return s.execFn(ctx)
}
