package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/http/middleware"
	"github.com/tbourn/food-chat-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService covers accounts and profiles.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (domain.PublicUser, error)
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	Profile(ctx context.Context, userID string) (domain.PublicUser, error)
	CountUsers(ctx context.Context) (int64, error)
}

// PreferenceService reads and replaces a user's food preferences.
type PreferenceService interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
	Replace(ctx context.Context, userID string, p domain.Preferences) error
}

// HistoryService exposes stored exchanges and sessions.
type HistoryService interface {
	History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error)
	Clear(ctx context.Context, userID, sessionID string) (int64, error)
	Sessions(ctx context.Context, userID string) ([]domain.SessionInfo, error)
	CreateSession(ctx context.Context, userID, name string) (*domain.SessionMeta, error)
	DeleteSession(ctx context.Context, userID, sessionID string) (int64, error)
	Summary(ctx context.Context, userID string) (domain.Summary, error)
	Search(ctx context.Context, userID, query string, limit int) ([]domain.Message, error)
	Stats(ctx context.Context, userID, sessionID string) (int64, *time.Time, error)
}

// ChatService runs exchanges and their idempotent replays.
type ChatService interface {
	Send(ctx context.Context, userID, message, sessionID string) (domain.ChatReply, error)
	Replay(ctx context.Context, userID, sessionID, key string) (domain.ChatReply, bool)
	Remember(ctx context.Context, userID, key string, reply domain.ChatReply)
	Context(ctx context.Context, userID string) (domain.UserContext, error)
}

//
// Handler wiring
//

// Handlers groups every API endpoint.
type Handlers struct {
	auth    AuthService
	prefs   PreferenceService
	history HistoryService
	chat    ChatService

	// backend names the document store in health responses.
	backend string
	now     func() time.Time
}

// New binds the handlers to their services. backend is reported by Health.
func New(auth AuthService, prefs PreferenceService, history HistoryService, chat ChatService, backend string) *Handlers {
	return &Handlers{
		auth:    auth,
		prefs:   prefs,
		history: history,
		chat:    chat,
		backend: backend,
		now:     time.Now,
	}
}

// userID is the id stored by middleware.Auth.
func userID(c *gin.Context) string { return middleware.UserID(c) }
