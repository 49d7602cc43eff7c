package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/food-chat-backend/internal/auth"
	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/http/middleware"
	"github.com/tbourn/food-chat-backend/internal/repo"
	"github.com/tbourn/food-chat-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type scriptedAgent struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (a *scriptedAgent) Respond(context.Context, string, string, []domain.Message, domain.Preferences) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.reply, a.err
}

func (a *scriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type env struct {
	r       *gin.Engine
	h       *Handlers
	store   *repo.GormStore
	agent   *scriptedAgent
	auth    *services.AuthService
	prefs   *services.PreferenceService
	history *services.HistoryService
	chat    *services.ChatService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
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

	e := &env{store: st, agent: &scriptedAgent{reply: "Try dal tadka tonight."}}
	e.auth = services.NewAuthService(st, auth.NewTokenCodec("test-secret", 30*24*time.Hour), auth.NewHasher(4))
	e.prefs = services.NewPreferenceService(st)
	e.history = services.NewHistoryService(st)
	e.history.Now = tick(fixedNow)
	e.chat = services.NewChatService(e.history, e.prefs, e.agent, st)
	e.chat.MaxMessageRunes = 50

	e.h = New(e.auth, e.prefs, e.history, e.chat, st.Name())
	e.h.now = func() time.Time { return fixedNow }

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/register", e.h.Register)
	r.POST("/login", e.h.Login)
	r.GET("/health", e.h.Health)

	authed := r.Group("", middleware.Auth(e.auth))
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, e.chat.ReplayExists)
	authed.GET("/profile", e.h.Profile)
	authed.POST("/chat", idem, e.h.Chat)
	authed.GET("/chat/history", e.h.GetHistory)
	authed.DELETE("/chat/history", e.h.ClearHistory)
	authed.GET("/chat/summary", e.h.Summary)
	authed.POST("/chat/search", e.h.Search)
	authed.GET("/sessions", e.h.ListSessions)
	authed.POST("/sessions", e.h.CreateSession)
	authed.DELETE("/sessions/:id", e.h.DeleteSession)
	authed.GET("/sessions/:id/history", e.h.SessionHistory)
	authed.DELETE("/sessions/:id/history", e.h.ClearSessionHistory)
	authed.GET("/user/context", e.h.UserContext)
	authed.GET("/preferences", e.h.GetPreferences)
	authed.PUT("/preferences", e.h.UpdatePreferences)
	e.r = r
	return e
}

// signup registers and logs in a fresh user, returning its bearer header.
func (e *env) signup(t *testing.T, name string) string {
	t.Helper()
	email := name + "@example.com"
	if w := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": name, "email": email, "password": "pw-" + name,
	}); w.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", name, w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": "pw-" + name})
	var res LoginResponse
	decode(t, w, &res)
	return "Bearer " + res.Token
}

// tick returns a clock that advances one second per call, so stored
// messages never share a timestamp.
func tick(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (%s)", w.Code, status, w.Body.String())
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != code || er.RequestID == "" {
		t.Fatalf("error body = %+v; want code %s", er, code)
	}
	return er
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}
