// Package services – AuthService
//
// AuthService owns registration, login, and token verification. Passwords are
// hashed with bcrypt and sessions are stateless HS256 tokens; nothing about a
// login is persisted.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/food-chat-backend/internal/auth"
	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      domain.PublicUser
	Token     string
	ExpiresIn int64 // seconds
	ExpiresAt time.Time
}

// AuthService registers users and issues and verifies tokens.
type AuthService struct {
	Users  UserStore
	Tokens *auth.TokenCodec
	Hasher auth.Hasher

	// Now is overridable in tests.
	Now func() time.Time
}

// NewAuthService wires an AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenCodec, hasher auth.Hasher) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Hasher: hasher, Now: func() time.Time { return time.Now().UTC() }}
}

// Register creates an account and returns its public view.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.PublicUser, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return domain.PublicUser{}, ErrValidation
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.PublicUser{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	switch _, err := s.Users.GetUserByEmail(ctx, email); {
	case err == nil:
		return domain.PublicUser{}, ErrDuplicateEmail
	case !errors.Is(err, repo.ErrNotFound):
		return domain.PublicUser{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.Now(),
	}
	u.Preferences.Normalize()
	if err := s.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return domain.PublicUser{}, ErrDuplicateEmail
		}
		return domain.PublicUser{}, fmt.Errorf("create user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u.Public(), nil
}

// Login checks credentials and issues a token. An unknown email and a wrong
// password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrValidation
	}
	u, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup email: %w", err)
	}
	if err := s.Hasher.Check(u.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return LoginResult{
		User:      u.Public(),
		Token:     token,
		ExpiresIn: int64(s.Tokens.TTL() / time.Second),
		ExpiresAt: exp,
	}, nil
}

// Profile returns the public view of the user.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.PublicUser, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Profile",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	u, err := s.Users.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.PublicUser{}, ErrUserNotFound
	}
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return u.Public(), nil
}

// VerifyToken returns the user id carried by raw, which may have a
// "Bearer " prefix.
func (s *AuthService) VerifyToken(raw string) (string, error) {
	id, err := s.Tokens.Verify(raw)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, auth.ErrMissingToken):
		return "", ErrMissingToken
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// CountUsers reports the number of registered users.
func (s *AuthService) CountUsers(ctx context.Context) (int64, error) {
	return s.Users.CountUsers(ctx)
}
