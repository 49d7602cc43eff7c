package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// GormStore adapts the repository free functions to the store contracts the
// services consume, so the same service code runs on SQLite, Postgres, or the
// Firestore store in package docstore.
type GormStore struct {
	DB *gorm.DB
	// Backend names the dialect for health output ("sqlite", "postgres").
	Backend string
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB, backend string) *GormStore {
	return &GormStore{DB: db, Backend: backend}
}

// Name returns the backend label.
func (s *GormStore) Name() string { return s.Backend }

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser proxies CreateUser.
func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	return CreateUser(ctx, s.DB, u)
}

// GetUser proxies GetUser.
func (s *GormStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return GetUser(ctx, s.DB, id)
}

// GetUserByEmail proxies GetUserByEmail.
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return GetUserByEmail(ctx, s.DB, email)
}

// CountUsers proxies CountUsers.
func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	return CountUsers(ctx, s.DB)
}

// SavePreferences proxies SavePreferences.
func (s *GormStore) SavePreferences(ctx context.Context, userID string, p domain.Preferences, at time.Time) error {
	return SavePreferences(ctx, s.DB, userID, p, at)
}

// CreateMessage proxies CreateMessage.
func (s *GormStore) CreateMessage(ctx context.Context, m *domain.Message) error {
	return CreateMessage(ctx, s.DB, m)
}

// GetMessage proxies GetMessage.
func (s *GormStore) GetMessage(ctx context.Context, userID, id string) (*domain.Message, error) {
	return GetMessage(ctx, s.DB, userID, id)
}

// ListMessages proxies ListMessages.
func (s *GormStore) ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	return ListMessages(ctx, s.DB, q)
}

// DeleteMessages proxies DeleteMessages.
func (s *GormStore) DeleteMessages(ctx context.Context, userID, sessionID string) (int64, error) {
	return DeleteMessages(ctx, s.DB, userID, sessionID)
}

// HasMessages proxies HasMessages.
func (s *GormStore) HasMessages(ctx context.Context, userID, sessionID string) (bool, error) {
	return HasMessages(ctx, s.DB, userID, sessionID)
}

// MessageStats proxies MessageStats.
func (s *GormStore) MessageStats(ctx context.Context, userID, sessionID string) (int64, *time.Time, error) {
	return MessageStats(ctx, s.DB, userID, sessionID)
}

// CreateSessionMeta proxies CreateSessionMeta.
func (s *GormStore) CreateSessionMeta(ctx context.Context, m *domain.SessionMeta) error {
	return CreateSessionMeta(ctx, s.DB, m)
}

// GetSessionMeta proxies GetSessionMeta.
func (s *GormStore) GetSessionMeta(ctx context.Context, userID, sessionID string) (*domain.SessionMeta, error) {
	return GetSessionMeta(ctx, s.DB, userID, sessionID)
}

// ListSessionMetas proxies ListSessionMetas.
func (s *GormStore) ListSessionMetas(ctx context.Context, userID string) ([]domain.SessionMeta, error) {
	return ListSessionMetas(ctx, s.DB, userID)
}

// DeleteSessionMeta proxies DeleteSessionMeta.
func (s *GormStore) DeleteSessionMeta(ctx context.Context, userID, sessionID string) (bool, error) {
	return DeleteSessionMeta(ctx, s.DB, userID, sessionID)
}

// GetIdempotency proxies GetIdempotency.
func (s *GormStore) GetIdempotency(ctx context.Context, userID, sessionID, key string, now time.Time) (*domain.Idempotency, error) {
	return GetIdempotency(ctx, s.DB, userID, sessionID, key, now)
}

// CreateIdempotency proxies CreateIdempotency.
func (s *GormStore) CreateIdempotency(ctx context.Context, rec *domain.Idempotency) error {
	return CreateIdempotency(ctx, s.DB, rec)
}
