// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// CreateMessage inserts m, assigning an id and timestamp when absent.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.SessionID == "" {
		m.SessionID = domain.DefaultSessionID
	}
	if m.MessageType == "" {
		m.MessageType = domain.MessageTypeConversation
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMessage fetches one of the user's messages by id.
func GetMessage(ctx context.Context, db *gorm.DB, userID, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the user's messages newest first (CreatedAt DESC, ID DESC),
// optionally scoped to one session and capped at q.Limit.
func ListMessages(ctx context.Context, db *gorm.DB, q domain.MessageQuery) ([]domain.Message, error) {
	out := []domain.Message{}
	tx := db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.SessionID != "" {
		tx = tx.Where("session_id = ?", q.SessionID)
	}
	tx = tx.Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	err := tx.Find(&out).Error
	return out, err
}

// DeleteMessages removes the user's messages (one session when sessionID is
// set) and returns how many rows were deleted.
func DeleteMessages(ctx context.Context, db *gorm.DB, userID, sessionID string) (int64, error) {
	tx := db.WithContext(ctx).Where("user_id = ?", userID)
	if sessionID != "" {
		tx = tx.Where("session_id = ?", sessionID)
	}
	res := tx.Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}

// HasMessages reports whether at least one message exists in the session.
func HasMessages(ctx context.Context, db *gorm.DB, userID, sessionID string) (bool, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.Message{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}
