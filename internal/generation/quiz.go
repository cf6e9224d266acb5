package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/edushare-api/internal/domain"
)

// QuizParseKind tags the outcome of ParseQuizResponse.
type QuizParseKind int

const (
	// QuizParsed means Questions holds a valid quiz.
	QuizParsed QuizParseKind = iota
	// QuizParseError means the response was present but unusable; Err explains why.
	QuizParseError
	// QuizEmpty means the model returned no content.
	QuizEmpty
)

func (k QuizParseKind) String() string {
	switch k {
	case QuizParsed:
		return "parsed"
	case QuizParseError:
		return "parse_error"
	case QuizEmpty:
		return "empty"
	default:
		return fmt.Sprintf("QuizParseKind(%d)", int(k))
	}
}

// QuizParseResult is the tagged result of parsing model quiz output.
type QuizParseResult struct {
	Kind      QuizParseKind
	Questions []domain.QuizQuestion
	Err       error
}

// Quiz returns the parsed questions, or an error wrapping ErrGenerationFailed
// for any other outcome.
func (r QuizParseResult) Quiz() ([]domain.QuizQuestion, error) {
	switch r.Kind {
	case QuizParsed:
		return r.Questions, nil
	case QuizEmpty:
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	default:
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, r.Err)
	}
}

// ParseQuizResponse strictly parses a JSON array of questions, tolerating a
// surrounding markdown code fence. Every question must have exactly four
// options and an answer letter A through D.
func ParseQuizResponse(raw string) QuizParseResult {
	body := StripCodeFence(raw)
	if body == "" {
		return QuizParseResult{Kind: QuizEmpty}
	}

	dec := json.NewDecoder(strings.NewReader(body))

	var questions []domain.QuizQuestion
	if err := dec.Decode(&questions); err != nil {
		return QuizParseResult{
			Kind: QuizParseError,
			Err:  fmt.Errorf("%w: %v", ErrInvalidResponse, err),
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return QuizParseResult{
			Kind: QuizParseError,
			Err:  fmt.Errorf("%w: trailing data after quiz array", ErrInvalidResponse),
		}
	}
	if len(questions) == 0 {
		return QuizParseResult{Kind: QuizEmpty}
	}

	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return QuizParseResult{
				Kind: QuizParseError,
				Err:  fmt.Errorf("%w: question %d: %v", ErrInvalidResponse, i+1, err),
			}
		}
	}

	return QuizParseResult{Kind: QuizParsed, Questions: questions}
}

// StripCodeFence removes a markdown code fence, with or without a language
// tag, and a bare leading "json" label from model output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "json"); ok {
		s = strings.TrimSpace(rest)
	}
	return s
}
