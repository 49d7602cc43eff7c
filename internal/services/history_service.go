// Package services – HistoryService
//
// HistoryService stores one document per user/assistant exchange and derives
// every other view from those documents: chronological history, per-session
// aggregates, a conversation summary, and substring search. Session metadata
// documents are optional and only contribute names and empty sessions.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// History limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 100

	summaryWindow  = 100
	searchWindow   = 100
	topicsWindow   = 10
	sessionActive  = "active"
	sessionNameFmt = "Session 2006-01-02 15:04"
)

// HistoryStore is what HistoryService needs from the backend.
type HistoryStore interface {
	MessageStore
	SessionStore
}

// HistoryService manages stored exchanges and sessions.
type HistoryService struct {
	Store HistoryStore
	Now   func() time.Time
}

// NewHistoryService wires a HistoryService.
func NewHistoryService(st HistoryStore) *HistoryService {
	return &HistoryService{Store: st, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *HistoryService) tracer(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return otel.Tracer("services/HistoryService").Start(ctx, name,
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
}

// Save persists one exchange. It never fails the caller: errors are logged
// and reported as ok=false.
func (s *HistoryService) Save(ctx context.Context, userID, userText, response, sessionID string) (*domain.Message, bool) {
	ctx, span := s.tracer(ctx, "Save", userID)
	defer span.End()

	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	m := &domain.Message{
		ID:                uuid.NewString(),
		UserID:            userID,
		SessionID:         sessionID,
		UserMessage:       userText,
		AssistantResponse: response,
		MessageLength:     runeLen(userText),
		ResponseLength:    runeLen(response),
		MessageType:       domain.MessageTypeConversation,
		Metadata:          messageMetadata(userText, response),
		CreatedAt:         s.Now(),
	}
	if err := s.Store.CreateMessage(ctx, m); err != nil {
		logger(ctx).Error().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("saving message failed")
		return nil, false
	}
	return m, true
}

// History returns up to limit exchanges in chronological order. An empty
// sessionID spans every session.
func (s *HistoryService) History(ctx context.Context, userID, sessionID string, limit int) ([]domain.Message, error) {
	ctx, span := s.tracer(ctx, "History", userID)
	defer span.End()

	limit = clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)
	msgs, err := s.Store.ListMessages(ctx, domain.MessageQuery{UserID: userID, SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Clear deletes the user's exchanges, limited to one session when sessionID
// is set.
func (s *HistoryService) Clear(ctx context.Context, userID, sessionID string) (int64, error) {
	ctx, span := s.tracer(ctx, "Clear", userID)
	defer span.End()

	n, err := s.Store.DeleteMessages(ctx, userID, sessionID)
	if err != nil {
		return n, fmt.Errorf("delete messages: %w", err)
	}
	span.SetAttributes(attribute.Int64("messages.deleted", n))
	return n, nil
}

// SessionExists reports whether the session has messages or a metadata
// document.
func (s *HistoryService) SessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	ctx, span := s.tracer(ctx, "SessionExists", userID)
	defer span.End()

	has, err := s.Store.HasMessages(ctx, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("has messages: %w", err)
	}
	if has {
		return true, nil
	}
	_, err = s.Store.GetSessionMeta(ctx, userID, sessionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repo.ErrNotFound):
		return false, nil
	}
	return false, fmt.Errorf("get session meta: %w", err)
}

// Sessions groups the user's messages by session and merges in sessions
// that only have metadata. The result is ordered by last activity, newest
// first.
func (s *HistoryService) Sessions(ctx context.Context, userID string) ([]domain.SessionInfo, error) {
	ctx, span := s.tracer(ctx, "Sessions", userID)
	defer span.End()

	msgs, err := s.Store.ListMessages(ctx, domain.MessageQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	metas, err := s.Store.ListSessionMetas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list session metas: %w", err)
	}

	byID := make(map[string]*domain.SessionInfo)
	order := []string{}
	get := func(id string) *domain.SessionInfo {
		if si, ok := byID[id]; ok {
			return si
		}
		si := &domain.SessionInfo{SessionID: id}
		byID[id] = si
		order = append(order, id)
		return si
	}

	// msgs are newest first: the first one seen is the latest.
	for i := range msgs {
		m := &msgs[i]
		si := get(m.SessionID)
		si.MessageCount++
		si.TotalTokens += m.Metadata.UserMessageTokens + m.Metadata.AssistantResponseTokens
		if m.Metadata.ContainsFoodKeywords {
			si.FoodRelatedMessages++
		}
		if m.Metadata.IsGreeting {
			si.GreetingMessages++
		}
		at := m.CreatedAt
		if si.LastMessage == nil {
			si.LastMessage = &at
			si.LastActivity = &at
		}
		si.FirstMessage = &at
	}
	for _, meta := range metas {
		si := get(meta.SessionID)
		si.SessionName = meta.SessionName
		if si.LastActivity == nil {
			created := meta.CreatedAt
			si.LastActivity = &created
		}
	}

	out := make([]domain.SessionInfo, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastActivity, out[j].LastActivity
		switch {
		case a == nil && b == nil:
			return out[i].SessionID < out[j].SessionID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

// CreateSession writes a metadata document for a new session id. No message
// is created.
func (s *HistoryService) CreateSession(ctx context.Context, userID, name string) (*domain.SessionMeta, error) {
	ctx, span := s.tracer(ctx, "CreateSession", userID)
	defer span.End()

	now := s.Now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = now.UTC().Format(sessionNameFmt)
	}
	meta := &domain.SessionMeta{
		UserID:      userID,
		SessionID:   uuid.NewString(),
		SessionName: name,
		Status:      sessionActive,
		CreatedAt:   now,
	}
	if err := s.Store.CreateSessionMeta(ctx, meta); err != nil {
		return nil, fmt.Errorf("create session meta: %w", err)
	}
	span.SetAttributes(attribute.String("session.id", meta.SessionID))
	return meta, nil
}

// DeleteSession removes the session's messages and metadata. Deleting an
// unknown session succeeds with zero messages removed.
func (s *HistoryService) DeleteSession(ctx context.Context, userID, sessionID string) (int64, error) {
	ctx, span := s.tracer(ctx, "DeleteSession", userID)
	defer span.End()

	n, err := s.Clear(ctx, userID, sessionID)
	if err != nil {
		return n, err
	}
	if _, err := s.Store.DeleteSessionMeta(ctx, userID, sessionID); err != nil {
		return n, fmt.Errorf("delete session meta: %w", err)
	}
	return n, nil
}

// Summary aggregates the user's most recent exchanges.
func (s *HistoryService) Summary(ctx context.Context, userID string) (domain.Summary, error) {
	ctx, span := s.tracer(ctx, "Summary", userID)
	defer span.End()

	hist, err := s.History(ctx, userID, "", summaryWindow)
	if err != nil {
		return domain.Summary{}, err
	}
	sum := domain.Summary{TotalMessages: len(hist), RecentTopics: []string{}}
	if len(hist) == 0 {
		return sum, nil
	}
	first, last := hist[0].CreatedAt, hist[len(hist)-1].CreatedAt
	dur := last.Sub(first).String()
	sum.FirstMessage = &first
	sum.LastMessage = &last
	sum.ConversationDuration = &dur

	tail := hist
	if len(tail) > topicsWindow {
		tail = tail[len(tail)-topicsWindow:]
	}
	sum.RecentTopics = recentTopics(tail)
	return sum, nil
}

// Search returns exchanges whose user or assistant text contains query,
// case-insensitively, newest first. Only the most recent exchanges are
// scanned.
func (s *HistoryService) Search(ctx context.Context, userID, query string, limit int) ([]domain.Message, error) {
	ctx, span := s.tracer(ctx, "Search", userID)
	defer span.End()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)

	msgs, err := s.Store.ListMessages(ctx, domain.MessageQuery{UserID: userID, Limit: searchWindow})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]domain.Message, 0, limit)
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m.UserMessage), q) || strings.Contains(strings.ToLower(m.AssistantResponse), q) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Stats returns the message count and newest timestamp for ETag computation.
func (s *HistoryService) Stats(ctx context.Context, userID, sessionID string) (int64, *time.Time, error) {
	return s.Store.MessageStats(ctx, userID, sessionID)
}

func clampLimit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
