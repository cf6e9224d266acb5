package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
)

const (
	tokenIssuer = "edushare-api"
	clockSkew   = 2 * time.Minute
)

// hs256Service signs and verifies access tokens with a shared HMAC secret.
type hs256Service struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

type tokenClaims struct {
	UserID uuid.UUID   `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hs256Service)(nil)

// NewJWTService builds the HS256 token service from the auth config.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newHS256Service(
		cfg.JWTSecret,
		time.Duration(cfg.TokenLifetimeMinutes)*time.Minute,
		time.Now,
	)
}

func newHS256Service(secret string, lifetime time.Duration, now func() time.Time) (*hs256Service, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &hs256Service{key: []byte(secret), lifetime: lifetime, now: now}, nil
}

func (s *hs256Service) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
	issued := s.now()
	claims := tokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.lifetime)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		logger.FromContext(ctx).Error("could not sign access token",
			"error", err,
			"user_id", userID)
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *hs256Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	at := s.now()

	parsed := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return at }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Debug("rejected expired token", "error", err)
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		log.Debug("rejected token used before nbf", "error", err)
		return nil, ErrTokenNotYetValid
	case err != nil:
		log.Debug("rejected token", "error", err, "error_type", fmt.Sprintf("%T", err))
		return nil, ErrInvalidToken
	}

	if !token.Valid || parsed.UserID == uuid.Nil || !parsed.Role.Valid() {
		log.Debug("rejected token with incomplete claims")
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    parsed.UserID,
		Role:      parsed.Role,
		Subject:   parsed.Subject,
		IssuedAt:  parsed.IssuedAt.Time,
		ExpiresAt: parsed.ExpiresAt.Time,
		ID:        parsed.ID,
	}, nil
}
