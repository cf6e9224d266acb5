package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrNothingToGenerate is returned when a playlist has no summaries to build a quiz from
	ErrNothingToGenerate = errors.New("nothing to generate from")

	// ErrGenerationFailed is returned when the model call or its output parse fails
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyResponse is returned when the model answers with no usable text
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
