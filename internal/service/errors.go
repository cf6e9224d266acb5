package service

import "errors"

// Service errors. The API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotMentor is returned when an operation requires a mentor account.
	ErrNotMentor = errors.New("user is not a mentor")

	// ErrNotStudent is returned when an operation requires a student account.
	ErrNotStudent = errors.New("user is not a student")

	// ErrEmptyPlaylist is returned when the source playlist contains no videos.
	ErrEmptyPlaylist = errors.New("playlist has no videos")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("users cannot follow themselves")
)
