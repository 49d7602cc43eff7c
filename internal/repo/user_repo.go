// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model
// and the preferences document embedded in it.
//
// Error semantics:
//   - Missing rows return ErrNotFound.
//   - A second account with the same email returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// CreateUser inserts u. The email is lower-cased before writing.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by (case-insensitive) email.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

// SavePreferences writes the preferences document for userID. When the user
// row does not exist, a shell user is created so the write never fails on a
// missing account.
func SavePreferences(ctx context.Context, db *gorm.DB, userID string, p domain.Preferences, at time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Struct form so the JSON serializer on Preferences is applied.
		res := tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Select("preferences", "preferences_updated_at").
			Updates(&domain.User{Preferences: p, PreferencesUpdatedAt: &at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		shell := &domain.User{
			ID:                   userID,
			Username:             "user_" + userID,
			Email:                "user_" + strings.ToLower(userID) + "@placeholder.local",
			Preferences:          p,
			PreferencesUpdatedAt: &at,
			CreatedAt:            at,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(shell).Error
	})
}
