// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the optional
// session metadata rows (table user_sessions).
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// CreateSessionMeta inserts a metadata row keyed by "<user>_<session>".
func CreateSessionMeta(ctx context.Context, db *gorm.DB, s *domain.SessionMeta) error {
	s.ID = domain.SessionMetaID(s.UserID, s.SessionID)
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetSessionMeta returns the metadata row for the session or ErrNotFound.
func GetSessionMeta(ctx context.Context, db *gorm.DB, userID, sessionID string) (*domain.SessionMeta, error) {
	var s domain.SessionMeta
	err := db.WithContext(ctx).
		Where("id = ?", domain.SessionMetaID(userID, sessionID)).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessionMetas returns all metadata rows for the user, newest first.
func ListSessionMetas(ctx context.Context, db *gorm.DB, userID string) ([]domain.SessionMeta, error) {
	out := []domain.SessionMeta{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// DeleteSessionMeta removes the metadata row if present. It reports whether a
// row was deleted.
func DeleteSessionMeta(ctx context.Context, db *gorm.DB, userID, sessionID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&domain.SessionMeta{})
	return res.RowsAffected > 0, res.Error
}
