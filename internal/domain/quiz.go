package domain

import (
	"errors"
	"strings"
)

// Validation errors for QuizQuestion
var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrInvalidOptions  = errors.New("question must have exactly 4 non-empty options")
	ErrInvalidAnswer   = errors.New("answer must be one of A, B, C, D")
	ErrInvalidQuizSize = errors.New("quiz question count out of range")
)

// QuizOptionCount is the number of options every question carries.
const QuizOptionCount = 4

// QuizQuestion is one multiple-choice question generated from playlist summaries.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Ans      string   `json:"ans"`
}

// Validate checks the question shape.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) != QuizOptionCount {
		return ErrInvalidOptions
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return ErrInvalidOptions
		}
	}
	switch q.Ans {
	case "A", "B", "C", "D":
		return nil
	default:
		return ErrInvalidAnswer
	}
}

// AnswerIndex returns the zero-based index of the correct option.
func (q QuizQuestion) AnswerIndex() int {
	if len(q.Ans) != 1 {
		return -1
	}
	return int(q.Ans[0] - 'A')
}
