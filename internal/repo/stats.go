// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) on the history endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// MessageStats returns the number of the user's messages (optionally one
// session) and the newest CreatedAt among them.
//
// Return values:
//   - count:  total matching messages
//   - latest: pointer to the greatest CreatedAt, or nil if no rows
//   - err:    database error, if any
func MessageStats(ctx context.Context, db *gorm.DB, userID, sessionID string) (count int64, latest *time.Time, err error) {
	scope := func() *gorm.DB {
		q := db.WithContext(ctx).Model(&domain.Message{}).Where("user_id = ?", userID)
		if sessionID != "" {
			q = q.Where("session_id = ?", sessionID)
		}
		return q
	}

	if err = scope().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = scope().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
