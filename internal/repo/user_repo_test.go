package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

func TestCreateUser_LowercasesEmail_AndRejectsDuplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Username: "kavleen", Email: " K@Example.com ", PasswordHash: "h"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "k@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}

	err := CreateUser(ctx, db, &domain.User{ID: "u2", Username: "other", Email: "k@example.com", PasswordHash: "h"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUser_AndByEmail(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if err := CreateUser(ctx, db, &domain.User{ID: "u1", Username: "a", Email: "a@x.io", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetUser(ctx, db, "u1")
	if err != nil || got.Email != "a@x.io" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}
	got, err = GetUserByEmail(ctx, db, "A@X.IO")
	if err != nil || got.ID != "u1" {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := GetUser(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUserByEmail(ctx, db, "nobody@x.io"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountUsers(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := CreateUser(ctx, db, &domain.User{ID: id, Username: id, Email: id + "@x.io", PasswordHash: "h"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	n, err := CountUsers(ctx, db)
	if err != nil || n != 3 {
		t.Fatalf("CountUsers = %d, %v", n, err)
	}
}

func TestSavePreferences_UpdatesExistingUser(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if err := CreateUser(ctx, db, &domain.User{ID: "u1", Username: "a", Email: "a@x.io", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := domain.Preferences{Restrictions: []string{"vegan"}}
	if err := SavePreferences(ctx, db, "u1", p, at); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	got, err := GetUser(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(got.Preferences.Restrictions) != 1 || got.Preferences.Restrictions[0] != "vegan" {
		t.Fatalf("preferences not saved: %+v", got.Preferences)
	}
	if got.PreferencesUpdatedAt == nil || !got.PreferencesUpdatedAt.Equal(at) {
		t.Fatalf("updated_at = %v", got.PreferencesUpdatedAt)
	}
	if got.PasswordHash != "h" || got.Username != "a" {
		t.Fatalf("other columns must be untouched: %+v", got)
	}
}

func TestSavePreferences_CreatesShellUser(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	at := time.Now().UTC()
	if err := SavePreferences(ctx, db, "ghost", domain.Preferences{Allergies: []string{"none"}}, at); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	got, err := GetUser(ctx, db, "ghost")
	if err != nil {
		t.Fatalf("shell user not created: %v", err)
	}
	if got.Username != "user_ghost" || got.Email != "user_ghost@placeholder.local" {
		t.Fatalf("unexpected shell user: %+v", got)
	}
	if len(got.Preferences.Allergies) != 1 {
		t.Fatalf("preferences missing on shell: %+v", got.Preferences)
	}
}
