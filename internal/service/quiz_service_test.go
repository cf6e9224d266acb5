package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testQuizConfig = config.QuizConfig{DefaultCount: 20, MaxCount: 50}

func quizJSON(t *testing.T, n int) string {
	t.Helper()
	questions := make([]domain.QuizQuestion, n)
	for i := range questions {
		questions[i] = domain.QuizQuestion{
			Question: fmt.Sprintf("Question %d?", i+1),
			Options:  []string{"one", "two", "three", "four"},
			Ans:      "B",
		}
	}
	raw, err := json.Marshal(questions)
	require.NoError(t, err)
	return string(raw)
}

// A failed video does not block a quiz built from the other summaries.
func TestQuizService_UsesOnlyStoredSummaries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	mentor := env.createUser(t, domain.RoleMentor)
	playlist := env.createPlaylist(t, mentor.ID, "A", "B", "C", "D", "E")

	require.NoError(t, env.records.UpdateStatus(ctx, "A", playlist.ID, domain.StatusUpdate{
		Status: domain.EnrichmentStatusFailed, Attempts: 3,
	}))
	for _, v := range []string{"B", "C", "D", "E"} {
		env.complete(t, playlist.ID, v, "summary "+v)
	}

	gen := new(mockQuizGenerator)
	gen.On("GenerateQuiz", mock.Anything, mock.AnythingOfType("string"), 5).
		Return("```json\n"+quizJSON(t, 5)+"\n```", nil)

	svc := service.NewQuizService(env.playlists, env.records, gen, testQuizConfig, discardLogger())
	questions, err := svc.GenerateQuiz(ctx, playlist.ID, 5)
	require.NoError(t, err)
	assert.Len(t, questions, 5)

	text := gen.Calls[0].Arguments.String(1)
	assert.Equal(t, "summary B\n\nsummary C\n\nsummary D\n\nsummary E", text)
	assert.NotContains(t, text, "summary A")
}

func TestQuizService_CountHandling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	mentor := env.createUser(t, domain.RoleMentor)
	playlist := env.createPlaylist(t, mentor.ID, "A")
	env.complete(t, playlist.ID, "A", "summary A")

	gen := new(mockQuizGenerator)
	gen.On("GenerateQuiz", mock.Anything, "summary A", 20).Return(quizJSON(t, 25), nil)
	gen.On("GenerateQuiz", mock.Anything, "summary A", 3).Return(quizJSON(t, 2), nil)
	svc := service.NewQuizService(env.playlists, env.records, gen, testQuizConfig, discardLogger())

	questions, err := svc.GenerateQuiz(ctx, playlist.ID, 0)
	require.NoError(t, err)
	assert.Len(t, questions, 20, "extra questions are truncated")

	questions, err = svc.GenerateQuiz(ctx, playlist.ID, 3)
	require.NoError(t, err)
	assert.Len(t, questions, 2, "fewer questions are returned as is")

	_, err = svc.GenerateQuiz(ctx, playlist.ID, 51)
	assert.ErrorIs(t, err, domain.ErrInvalidQuizSize)
	_, err = svc.GenerateQuiz(ctx, playlist.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuizSize)
}

func TestQuizService_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	mentor := env.createUser(t, domain.RoleMentor)

	t.Run("nothing to generate from", func(t *testing.T) {
		playlist := env.createPlaylist(t, mentor.ID, "A")
		gen := new(mockQuizGenerator)
		svc := service.NewQuizService(env.playlists, env.records, gen, testQuizConfig, discardLogger())

		_, err := svc.GenerateQuiz(ctx, playlist.ID, 5)
		assert.ErrorIs(t, err, generation.ErrNothingToGenerate)
		gen.AssertNotCalled(t, "GenerateQuiz", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown playlist", func(t *testing.T) {
		svc := service.NewQuizService(env.playlists, env.records, new(mockQuizGenerator), testQuizConfig, discardLogger())
		_, err := svc.GenerateQuiz(ctx, uuid.New(), 5)
		assert.ErrorIs(t, err, store.ErrPlaylistNotFound)
	})

	responses := []struct {
		name string
		raw  string
		err  error
	}{
		{name: "call error", err: errors.New("deadline exceeded")},
		{name: "not json", raw: "Sure! Here are your questions."},
		{name: "empty array", raw: "[]"},
		{name: "bad answer letter", raw: `[{"question":"q","options":["a","b","c","d"],"ans":"E"}]`},
		{name: "three options", raw: `[{"question":"q","options":["a","b","c"],"ans":"A"}]`},
	}
	for _, tc := range responses {
		t.Run(tc.name, func(t *testing.T) {
			playlist := env.createPlaylist(t, mentor.ID, "A")
			env.complete(t, playlist.ID, "A", "summary A")

			gen := new(mockQuizGenerator)
			gen.On("GenerateQuiz", mock.Anything, "summary A", 5).Return(tc.raw, tc.err)
			svc := service.NewQuizService(env.playlists, env.records, gen, testQuizConfig, discardLogger())

			questions, err := svc.GenerateQuiz(ctx, playlist.ID, 5)
			assert.ErrorIs(t, err, generation.ErrGenerationFailed)
			assert.Nil(t, questions)
			assert.False(t, strings.Contains(err.Error(), "nothing to generate"))
		})
	}
}
