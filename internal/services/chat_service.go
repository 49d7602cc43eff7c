// Package services – ChatService
//
// ChatService is the glue behind POST /chat: it loads the session's recent
// history and the user's preferences, asks the Agent for a reply, and saves
// the exchange. Agent or context failures never surface as errors; the user
// gets a fixed apology and nothing is saved.
//
// It also serves idempotent replays: a send made with an Idempotency-Key is
// remembered against the saved message so a retry returns the same reply
// without calling the agent again.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// ApologyMessage is returned when a reply could not be produced.
const ApologyMessage = "Sorry, I'm having trouble processing your request right now."

// Agent produces the assistant's reply. history is chronological.
type Agent interface {
	Respond(ctx context.Context, userID, message string, history []domain.Message, prefs domain.Preferences) (string, error)
}

// ReplayStore is what idempotent replays need from the backend.
type ReplayStore interface {
	IdempotencyStore
	GetMessage(ctx context.Context, userID, id string) (*domain.Message, error)
}

// ChatService runs a chat exchange.
type ChatService struct {
	History *HistoryService
	Prefs   *PreferenceService
	Agent   Agent
	Replays ReplayStore

	// MaxMessageRunes caps user messages; 0 disables the check.
	MaxMessageRunes int
	// HistoryLimit is how many prior exchanges the agent sees.
	HistoryLimit int
	// IdempotencyTTL bounds how long a replay record is honored.
	IdempotencyTTL time.Duration

	Now func() time.Time
}

// NewChatService wires a ChatService with default limits.
func NewChatService(h *HistoryService, p *PreferenceService, a Agent, replays ReplayStore) *ChatService {
	return &ChatService{
		History:         h,
		Prefs:           p,
		Agent:           a,
		Replays:         replays,
		MaxMessageRunes: 2000,
		HistoryLimit:    20,
		IdempotencyTTL:  24 * time.Hour,
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

// Send answers message in sessionID (default when empty). Only input
// validation produces an error.
func (s *ChatService) Send(ctx context.Context, userID, message, sessionID string) (domain.ChatReply, error) {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ChatReply{}, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && runeLen(message) > s.MaxMessageRunes {
		return domain.ChatReply{}, ErrMessageTooLong
	}

	reply := domain.ChatReply{UserMessage: message, SessionID: sessionID}
	text, err := s.respond(ctx, userID, message, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent failed")
		logger(ctx).Warn().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("chat reply failed; apologizing")
		reply.Message = ApologyMessage
		reply.Timestamp = s.Now().Format(time.RFC3339)
		return reply, nil
	}

	reply.Message = text
	if m, ok := s.History.Save(ctx, userID, message, text, sessionID); ok {
		reply.MessageID = m.ID
		reply.Timestamp = m.CreatedAt.UTC().Format(time.RFC3339)
	} else {
		reply.Timestamp = s.Now().Format(time.RFC3339)
	}
	return reply, nil
}

func (s *ChatService) respond(ctx context.Context, userID, message, sessionID string) (string, error) {
	if s.Agent == nil {
		return "", errors.New("no agent configured")
	}
	history, err := s.History.History(ctx, userID, sessionID, s.HistoryLimit)
	if err != nil {
		return "", err
	}
	prefs, err := s.Prefs.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	text, err := s.Agent.Respond(ctx, userID, message, history, prefs)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("agent returned an empty reply")
	}
	return text, nil
}

// ReplayExists reports whether a live replay record exists for the key.
func (s *ChatService) ReplayExists(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
	if s.Replays == nil || key == "" {
		return false, nil
	}
	_, err := s.Replays.GetIdempotency(ctx, userID, defaultSession(sessionID), key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Replay returns the reply recorded for key, if any.
func (s *ChatService) Replay(ctx context.Context, userID, sessionID, key string) (domain.ChatReply, bool) {
	if s.Replays == nil || key == "" {
		return domain.ChatReply{}, false
	}
	sessionID = defaultSession(sessionID)
	rec, err := s.Replays.GetIdempotency(ctx, userID, sessionID, key, s.Now())
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger(ctx).Warn().Err(err).Msg("idempotency lookup failed")
		}
		return domain.ChatReply{}, false
	}
	m, err := s.Replays.GetMessage(ctx, userID, rec.MessageID)
	if err != nil {
		logger(ctx).Warn().Err(err).Str("message_id", rec.MessageID).Msg("replayed message missing")
		return domain.ChatReply{}, false
	}
	return domain.ChatReply{
		Message:     m.AssistantResponse,
		UserMessage: m.UserMessage,
		SessionID:   m.SessionID,
		Timestamp:   m.CreatedAt.UTC().Format(time.RFC3339),
		MessageID:   m.ID,
	}, true
}

// Remember records reply under key. Replies that were not saved are not
// remembered, so an apology is retried rather than replayed.
func (s *ChatService) Remember(ctx context.Context, userID, key string, reply domain.ChatReply) {
	if s.Replays == nil || key == "" || reply.MessageID == "" {
		return
	}
	now := s.Now()
	rec := &domain.Idempotency{
		UserID:    userID,
		SessionID: defaultSession(reply.SessionID),
		Key:       key,
		MessageID: reply.MessageID,
		Status:    200,
		CreatedAt: now,
		ExpiresAt: now.Add(s.IdempotencyTTL),
	}
	if err := s.Replays.CreateIdempotency(ctx, rec); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		logger(ctx).Warn().Err(err).Msg("storing idempotency record failed")
	}
}

// Context describes what the assistant knows about the user.
func (s *ChatService) Context(ctx context.Context, userID string) (domain.UserContext, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Context",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	prefs, err := s.Prefs.Get(ctx, userID)
	if err != nil {
		return domain.UserContext{}, err
	}
	sum, err := s.History.Summary(ctx, userID)
	if err != nil {
		return domain.UserContext{}, err
	}
	sessions, err := s.History.Sessions(ctx, userID)
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("sessions: %w", err)
	}
	return domain.UserContext{
		HasPreferences:      !prefs.IsEmpty(),
		PreferencesComplete: prefs.IsComplete(),
		MissingPreferences:  prefs.MissingMandatory(),
		Preferences:         prefs,
		TotalMessages:       sum.TotalMessages,
		SessionsCount:       len(sessions),
		RecentTopics:        sum.RecentTopics,
	}, nil
}

func defaultSession(id string) string {
	if id == "" {
		return domain.DefaultSessionID
	}
	return id
}
