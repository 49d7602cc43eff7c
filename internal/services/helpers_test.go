package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/food-chat-backend/internal/auth"
	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// ---------- test helpers ----------

func newStore(t *testing.T) *repo.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	st := repo.NewGormStore(db, "sqlite")
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// clock returns a Now func that advances one second per call.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newAuth(t *testing.T, st *repo.GormStore) *AuthService {
	t.Helper()
	s := NewAuthService(st, auth.NewTokenCodec("test-secret", 30*24*time.Hour), auth.NewHasher(4))
	return s
}

type fakeAgent struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	history []domain.Message
	prefs   domain.Preferences
}

func (f *fakeAgent) Respond(_ context.Context, _ string, _ string, history []domain.Message, prefs domain.Preferences) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = history
	f.prefs = prefs
	return f.reply, f.err
}

func newChat(t *testing.T, st *repo.GormStore, a Agent) *ChatService {
	t.Helper()
	h := NewHistoryService(st)
	h.Now = clock(t0)
	c := NewChatService(h, NewPreferenceService(st), a, st)
	c.Now = clock(t0.Add(time.Hour))
	return c
}
