package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	mentorToken  = "mentor-token"
	studentToken = "student-token"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(
	ctx context.Context,
	name, email, password string,
	role domain.Role,
) (*domain.User, error) {
	args := m.Called(ctx, name, email, password, role)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*domain.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserService) ToggleFollowMentor(ctx context.Context, userID, mentorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, mentorID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserService) FollowersCount(ctx context.Context, mentorID uuid.UUID) (int, error) {
	args := m.Called(ctx, mentorID)
	return args.Int(0), args.Error(1)
}

type mockPlaylistService struct{ mock.Mock }

func (m *mockPlaylistService) CreatePlaylist(
	ctx context.Context,
	mentorID uuid.UUID,
	title, sourceURL string,
) (*domain.Playlist, error) {
	args := m.Called(ctx, mentorID, title, sourceURL)
	p, _ := args.Get(0).(*domain.Playlist)
	return p, args.Error(1)
}

func (m *mockPlaylistService) GetPlaylist(ctx context.Context, playlistID uuid.UUID) (*domain.Playlist, error) {
	args := m.Called(ctx, playlistID)
	p, _ := args.Get(0).(*domain.Playlist)
	return p, args.Error(1)
}

func (m *mockPlaylistService) ListEnrichment(
	ctx context.Context,
	playlistID uuid.UUID,
) ([]*domain.EnrichmentRecord, error) {
	args := m.Called(ctx, playlistID)
	recs, _ := args.Get(0).([]*domain.EnrichmentRecord)
	return recs, args.Error(1)
}

func (m *mockPlaylistService) DeletePlaylist(ctx context.Context, mentorID, playlistID uuid.UUID) error {
	return m.Called(ctx, mentorID, playlistID).Error(0)
}

func (m *mockPlaylistService) ToggleEnrollment(ctx context.Context, userID, playlistID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, playlistID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPlaylistService) EnrollmentStats(
	ctx context.Context,
	playlistID uuid.UUID,
) (*service.EnrollmentStats, error) {
	args := m.Called(ctx, playlistID)
	s, _ := args.Get(0).(*service.EnrollmentStats)
	return s, args.Error(1)
}

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) ReportProgress(
	ctx context.Context,
	userID uuid.UUID,
	report domain.ProgressReport,
) (*domain.UserProgress, error) {
	args := m.Called(ctx, userID, report)
	p, _ := args.Get(0).(*domain.UserProgress)
	return p, args.Error(1)
}

func (m *mockProgressService) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.UserProgress)
	return p, args.Error(1)
}

type mockQuizService struct{ mock.Mock }

func (m *mockQuizService) GenerateQuiz(
	ctx context.Context,
	playlistID uuid.UUID,
	count int,
) ([]domain.QuizQuestion, error) {
	args := m.Called(ctx, playlistID, count)
	q, _ := args.Get(0).([]domain.QuizQuestion)
	return q, args.Error(1)
}

// stubTokens accepts the two fixed test tokens and issues "issued-token".
type stubTokens struct {
	mentorID  uuid.UUID
	studentID uuid.UUID
}

func (s stubTokens) GenerateToken(_ context.Context, _ uuid.UUID, _ domain.Role) (string, error) {
	return "issued-token", nil
}

func (s stubTokens) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	switch token {
	case mentorToken:
		return &auth.Claims{UserID: s.mentorID, Role: domain.RoleMentor}, nil
	case studentToken:
		return &auth.Claims{UserID: s.studentID, Role: domain.RoleStudent}, nil
	default:
		return nil, auth.ErrInvalidToken
	}
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubQueue struct{ n int }

func (q stubQueue) InFlight() int { return q.n }

type testServer struct {
	handler   http.Handler
	users     *mockUserService
	playlists *mockPlaylistService
	progress  *mockProgressService
	quizzes   *mockQuizService
	mentorID  uuid.UUID
	studentID uuid.UUID
}

func newTestServer(t *testing.T, db stubPinger) *testServer {
	t.Helper()

	ts := &testServer{
		users:     new(mockUserService),
		playlists: new(mockPlaylistService),
		progress:  new(mockProgressService),
		quizzes:   new(mockQuizService),
		mentorID:  uuid.New(),
		studentID: uuid.New(),
	}
	ts.handler = NewRouter(RouterDeps{
		Users:     ts.users,
		Playlists: ts.playlists,
		Progress:  ts.progress,
		Quizzes:   ts.quizzes,
		Tokens:    stubTokens{mentorID: ts.mentorID, studentID: ts.studentID},
		DB:        db,
		Queue:     stubQueue{n: 2},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	t.Cleanup(func() {
		ts.users.AssertExpectations(t)
		ts.playlists.AssertExpectations(t)
		ts.progress.AssertExpectations(t)
		ts.quizzes.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
