package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

func TestChat_SendPersistsAndPassesContext(t *testing.T) {
	st := newStore(t)
	agent := &fakeAgent{reply: "Try khichdi."}
	c := newChat(t, st, agent)
	ctx := context.Background()

	if err := c.Prefs.Replace(ctx, "u1", domain.Preferences{Restrictions: []string{"vegetarian"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	mustSave(t, c.History, "u1", "earlier", "answer", "S")
	mustSave(t, c.History, "u1", "elsewhere", "answer", "T")

	reply, err := c.Send(ctx, "u1", "  what for dinner?  ", "S")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Message != "Try khichdi." || reply.UserMessage != "what for dinner?" || reply.SessionID != "S" {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.MessageID == "" {
		t.Fatalf("expected saved message id")
	}
	if _, err := time.Parse(time.RFC3339, reply.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", reply.Timestamp, err)
	}
	if len(agent.history) != 1 || agent.history[0].UserMessage != "earlier" {
		t.Fatalf("agent history = %+v", agent.history)
	}
	if len(agent.prefs.Restrictions) != 1 {
		t.Fatalf("agent prefs = %+v", agent.prefs)
	}

	hist, _ := c.History.History(ctx, "u1", "S", 0)
	if len(hist) != 2 || hist[1].AssistantResponse != "Try khichdi." {
		t.Fatalf("history after send = %+v", hist)
	}
}

func TestChat_SendDefaultsSession(t *testing.T) {
	c := newChat(t, newStore(t), &fakeAgent{reply: "ok"})
	reply, err := c.Send(context.Background(), "u1", "hi", "")
	if err != nil || reply.SessionID != domain.DefaultSessionID {
		t.Fatalf("reply = %+v, %v", reply, err)
	}
}

func TestChat_SendValidation(t *testing.T) {
	c := newChat(t, newStore(t), &fakeAgent{reply: "ok"})
	c.MaxMessageRunes = 5
	ctx := context.Background()
	if _, err := c.Send(ctx, "u1", "   ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := c.Send(ctx, "u1", "ñññññÑ", ""); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	if _, err := c.Send(ctx, "u1", "ñññññ", ""); err != nil {
		t.Fatalf("5 runes must pass: %v", err)
	}
}

func TestChat_AgentFailureApologizesWithoutSaving(t *testing.T) {
	st := newStore(t)
	for name, a := range map[string]Agent{
		"error": &fakeAgent{err: errors.New("model down")},
		"blank": &fakeAgent{reply: "   "},
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			c := newChat(t, st, a)
			reply, err := c.Send(context.Background(), "u-"+name, "hello", "S")
			if err != nil {
				t.Fatalf("Send must not fail: %v", err)
			}
			if reply.Message != ApologyMessage || reply.MessageID != "" || reply.SessionID != "S" {
				t.Fatalf("reply = %+v", reply)
			}
			if n, _, _ := st.MessageStats(context.Background(), "u-"+name, ""); n != 0 {
				t.Fatalf("apology must not be persisted, found %d", n)
			}
		})
	}
}

func TestChat_ReplayRoundTrip(t *testing.T) {
	st := newStore(t)
	agent := &fakeAgent{reply: "Poha"}
	c := newChat(t, st, agent)
	ctx := context.Background()

	if _, ok := c.Replay(ctx, "u1", "S", "k1"); ok {
		t.Fatalf("unexpected replay before send")
	}
	reply, _ := c.Send(ctx, "u1", "breakfast?", "S")
	c.Remember(ctx, "u1", "k1", reply)
	c.Remember(ctx, "u1", "k1", reply) // duplicate is ignored

	exists, err := c.ReplayExists(ctx, "u1", "S", "k1", c.Now())
	if err != nil || !exists {
		t.Fatalf("ReplayExists = %v, %v", exists, err)
	}
	got, ok := c.Replay(ctx, "u1", "S", "k1")
	if !ok || got.Message != "Poha" || got.MessageID != reply.MessageID || got.UserMessage != "breakfast?" {
		t.Fatalf("Replay = %+v, %v", got, ok)
	}
	if _, ok := c.Replay(ctx, "u1", "other", "k1"); ok {
		t.Fatalf("replay must be scoped to the session")
	}
	if _, ok := c.Replay(ctx, "u2", "S", "k1"); ok {
		t.Fatalf("replay must be scoped to the user")
	}

	// Expired records are not replayed.
	c.Now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	if _, ok := c.Replay(ctx, "u1", "S", "k1"); ok {
		t.Fatalf("expired record replayed")
	}
}

func TestChat_RememberSkipsUnsavedReplies(t *testing.T) {
	st := newStore(t)
	c := newChat(t, st, &fakeAgent{err: errors.New("x")})
	ctx := context.Background()
	reply, _ := c.Send(ctx, "u1", "hello", "")
	c.Remember(ctx, "u1", "k", reply)
	if exists, _ := c.ReplayExists(ctx, "u1", "", "k", c.Now()); exists {
		t.Fatalf("apology must not be remembered")
	}
	if exists, err := c.ReplayExists(ctx, "u1", "", "", c.Now()); exists || err != nil {
		t.Fatalf("blank key = %v, %v", exists, err)
	}
}

func TestChat_Context(t *testing.T) {
	st := newStore(t)
	c := newChat(t, st, &fakeAgent{reply: "Have some dal"})
	ctx := context.Background()

	empty, err := c.Context(ctx, "u1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if empty.HasPreferences || empty.PreferencesComplete || len(empty.MissingPreferences) != 3 || empty.SessionsCount != 0 {
		t.Fatalf("empty context = %+v", empty)
	}

	_ = c.Prefs.Replace(ctx, "u1", domain.Preferences{
		Restrictions:       []string{"vegetarian"},
		Allergies:          []string{"none"},
		CuisinePreferences: []string{"indian"},
	})
	_, _ = c.Send(ctx, "u1", "lunch idea", "A")
	_, _ = c.Send(ctx, "u1", "dinner idea", "B")
	if _, err := c.History.CreateSession(ctx, "u1", "empty"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	uc, err := c.Context(ctx, "u1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if !uc.HasPreferences || !uc.PreferencesComplete || len(uc.MissingPreferences) != 0 {
		t.Fatalf("prefs context = %+v", uc)
	}
	if uc.TotalMessages != 2 || uc.SessionsCount != 3 {
		t.Fatalf("counts = %d messages, %d sessions", uc.TotalMessages, uc.SessionsCount)
	}
	if strings.Join(uc.RecentTopics, ",") != "lunch,dal,dinner" {
		t.Fatalf("topics = %v", uc.RecentTopics)
	}
}
