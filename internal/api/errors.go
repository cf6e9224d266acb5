package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/edushare-api/internal/api/shared"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/generation"
	"github.com/phrazzld/edushare-api/internal/service"
	"github.com/phrazzld/edushare-api/internal/service/auth"
	"github.com/phrazzld/edushare-api/internal/store"
)

// badRequestErrors are domain validation failures the client can fix.
var badRequestErrors = []error{
	domain.ErrValidation,
	domain.ErrInvalidFormat,
	domain.ErrInvalidID,
	domain.ErrInvalidPlaylistURL,
	domain.ErrEmptyPlaylistTitle,
	domain.ErrPercentOutOfRange,
	domain.ErrEmptyVideoID,
	domain.ErrEmptyPlaylistID,
	domain.ErrInvalidQuizSize,
	domain.ErrEmptyUserName,
	domain.ErrEmptyEmail,
	domain.ErrInvalidEmail,
	domain.ErrInvalidRole,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	service.ErrEmptyPlaylist,
	store.ErrInvalidEntity,
	shared.ErrEmptyBody,
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types or messages.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrNotMentor),
		errors.Is(err, service.ErrNotStudent),
		errors.Is(err, service.ErrSelfFollow):
		return http.StatusForbidden

	case store.IsNotFoundError(err),
		errors.Is(err, generation.ErrNothingToGenerate):
		return http.StatusNotFound

	case store.IsDuplicateError(err):
		return http.StatusConflict

	case errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this playlist"
	case errors.Is(err, service.ErrNotMentor):
		return "Only mentors can do this"
	case errors.Is(err, service.ErrNotStudent):
		return "Only students can do this"
	case errors.Is(err, service.ErrSelfFollow):
		return "You cannot follow yourself"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrPlaylistNotFound):
		return "Playlist not found"
	case errors.Is(err, store.ErrEnrichmentRecordNotFound):
		return "Summary not found"
	case errors.Is(err, generation.ErrNothingToGenerate):
		return "No summaries available for this playlist yet"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, generation.ErrGenerationFailed):
		return "Quiz generation failed"

	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, service.ErrEmptyPlaylist):
		return "Playlist has no videos"
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			// domain sentinel messages are written for clients
			return capitalize(target.Error())
		}
	}
	return "An unexpected error occurred"
}

// HandleAPIError writes the mapped status and safe message for err and
// logs the redacted details. fallback replaces the generic 500 message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns validator output into a message naming the
// first offending field without leaking struct names.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "url":
		return "invalid URL"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
