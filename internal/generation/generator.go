package generation

import "context"

// Summarizer produces a short plain-text summary of one video.
// Implementations return ErrEmptyResponse when the model produced nothing.
type Summarizer interface {
	Summarize(ctx context.Context, videoID string) (string, error)
}

// QuizGenerator asks a model for count multiple-choice questions about text
// and returns the raw model output, which callers pass to ParseQuizResponse.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, text string, count int) (string, error)
}
