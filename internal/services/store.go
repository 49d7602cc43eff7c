package services

import (
	"context"
	"time"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// UserStore persists accounts and their embedded preferences.
type UserStore interface {
	// CreateUser inserts u. A taken email yields repo.ErrDuplicate.
	CreateUser(ctx context.Context, u *domain.User) error
	// GetUser yields repo.ErrNotFound for an unknown id.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail matches the lower-cased email exactly.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
	// SavePreferences replaces the user's preferences, creating a shell user
	// when the id is unknown.
	SavePreferences(ctx context.Context, userID string, p domain.Preferences, at time.Time) error
}

// MessageStore persists chat exchanges.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, userID, id string) (*domain.Message, error)
	// ListMessages returns matches newest first.
	ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error)
	// DeleteMessages removes every match; an empty sessionID means all sessions.
	DeleteMessages(ctx context.Context, userID, sessionID string) (int64, error)
	HasMessages(ctx context.Context, userID, sessionID string) (bool, error)
	MessageStats(ctx context.Context, userID, sessionID string) (int64, *time.Time, error)
}

// SessionStore persists optional session metadata.
type SessionStore interface {
	CreateSessionMeta(ctx context.Context, m *domain.SessionMeta) error
	GetSessionMeta(ctx context.Context, userID, sessionID string) (*domain.SessionMeta, error)
	ListSessionMetas(ctx context.Context, userID string) ([]domain.SessionMeta, error)
	// DeleteSessionMeta reports whether a document was removed.
	DeleteSessionMeta(ctx context.Context, userID, sessionID string) (bool, error)
}

// IdempotencyStore persists replay records for chat sends.
type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, userID, sessionID, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, rec *domain.Idempotency) error
}

// Store is the full backend injected by cmd/server. repo.GormStore and
// docstore.Store both implement it.
type Store interface {
	UserStore
	MessageStore
	SessionStore
	IdempotencyStore

	// Name labels the backend in health output.
	Name() string
	Close() error
}
