package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
)

// UserStore persists accounts and the student-to-mentor follow relation.
type UserStore interface {
	// Create inserts a user with an already hashed password.
	// A taken email yields ErrEmailExists.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail matches the lowercased email. Missing users yield ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Delete removes a user; follows and progress rows go with it.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FollowMentor records that studentID follows mentorID. Following twice is a no-op.
	FollowMentor(ctx context.Context, studentID, mentorID uuid.UUID) error

	// UnfollowMentor removes the relation and reports whether one existed.
	UnfollowMentor(ctx context.Context, studentID, mentorID uuid.UUID) (bool, error)

	// CountFollowers returns how many users follow mentorID.
	CountFollowers(ctx context.Context, mentorID uuid.UUID) (int, error)

	// WithTx binds the store to tx.
	WithTx(tx *sql.Tx) UserStore
}
