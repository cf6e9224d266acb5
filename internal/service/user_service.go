package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/service/auth"
	"github.com/phrazzld/edushare-api/internal/store"
)

// UserService provides account, authentication, and mentor follow operations.
type UserService interface {
	// Register creates a user with a hashed password.
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)

	// Login checks credentials and returns the user with a signed access token.
	// Returns ErrInvalidCredentials for an unknown email or a wrong password.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// DeleteUser deletes a user. A mentor's playlists are deleted with the
	// same cascade as DeletePlaylist.
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// ToggleFollowMentor follows or unfollows a mentor and reports whether
	// the user follows them afterwards.
	ToggleFollowMentor(ctx context.Context, userID, mentorID uuid.UUID) (bool, error)

	// FollowersCount returns how many users follow a mentor.
	FollowersCount(ctx context.Context, mentorID uuid.UUID) (int, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	db       *sql.DB
	users    store.UserStore
	cascade  cascade
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	tokens   auth.JWTService
	logger   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	db *sql.DB,
	users store.UserStore,
	playlists store.PlaylistStore,
	enrollments store.EnrollmentStore,
	records store.EnrichmentStore,
	progress store.ProgressStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	tokens auth.JWTService,
	logger *slog.Logger,
) UserService {
	return &UserServiceImpl{
		db:    db,
		users: users,
		cascade: cascade{
			playlists:   playlists,
			enrollments: enrollments,
			records:     records,
			progress:    progress,
		},
		hasher:   hasher,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger.With("component", "user_service"),
	}
}

// Register creates a new user with the specified credentials and role.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	name, email, password string,
	role domain.Role,
) (*domain.User, error) {
	user, err := domain.NewUser(name, email, password, role)
	if err != nil {
		s.logger.Debug("invalid registration", "error", err, "email", email)
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, err
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email", "email", user.Email)
		} else {
			s.logger.Error("failed to save user", "error", err, "email", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"role", user.Role)
	return user, nil
}

// Login checks the password against the stored hash and issues a token.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", "error", err)
		return nil, "", fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err, "user_id", user.ID)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user in one transaction. Follow relations and
// progress rows go with the user row.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var deletedPlaylists int
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user: %w", err)
		}

		if user.IsMentor() {
			owned, err := s.cascade.playlists.WithTx(tx).ListByMentor(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to list mentor playlists: %w", err)
			}
			for _, playlistID := range owned {
				if err := s.cascade.deletePlaylist(ctx, tx, playlistID); err != nil {
					return err
				}
			}
			deletedPlaylists = len(owned)
		}

		return users.Delete(ctx, userID)
	})
	if err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", userID)
		return err
	}

	s.logger.Info("user deleted",
		"user_id", userID,
		"deleted_playlists", deletedPlaylists)
	return nil
}

// ToggleFollowMentor only allows following mentor accounts.
func (s *UserServiceImpl) ToggleFollowMentor(ctx context.Context, userID, mentorID uuid.UUID) (bool, error) {
	if userID == mentorID {
		return false, ErrSelfFollow
	}

	var following bool
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		mentor, err := users.GetByID(ctx, mentorID)
		if err != nil {
			return fmt.Errorf("failed to retrieve mentor: %w", err)
		}
		if !mentor.IsMentor() {
			return ErrNotMentor
		}

		removed, err := users.UnfollowMentor(ctx, userID, mentorID)
		if err != nil {
			return fmt.Errorf("failed to unfollow mentor: %w", err)
		}
		if removed {
			return nil
		}
		if err := users.FollowMentor(ctx, userID, mentorID); err != nil {
			return fmt.Errorf("failed to follow mentor: %w", err)
		}
		following = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// FollowersCount returns the follower count of a mentor account.
func (s *UserServiceImpl) FollowersCount(ctx context.Context, mentorID uuid.UUID) (int, error) {
	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve mentor: %w", err)
	}
	if !mentor.IsMentor() {
		return 0, ErrNotMentor
	}
	count, err := s.users.CountFollowers(ctx, mentorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}
