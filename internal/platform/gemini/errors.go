package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyVideoID is returned when a summary is requested without a video.
	ErrEmptyVideoID = errors.New("video ID cannot be empty")

	// ErrEmptyQuizText is returned when a quiz is requested from empty text.
	ErrEmptyQuizText = errors.New("quiz source text cannot be empty")
)
