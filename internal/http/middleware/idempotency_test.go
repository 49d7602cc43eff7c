package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type lookupCall struct {
	user, session, key string
}

func idemRouter(t *testing.T, opts IdempotencyOptions, exists bool, lookupErr error, calls *[]lookupCall) *gin.Engine {
	t.Helper()
	lookup := func(_ context.Context, user, session, key string, now time.Time) (bool, error) {
		if now.IsZero() {
			t.Errorf("lookup got zero time")
		}
		*calls = append(*calls, lookupCall{user, session, key})
		return exists, lookupErr
	}
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(userIDKey, "u-1"); c.Next() })
	h := func(c *gin.Context) {
		var body struct {
			Message string `json:"message"`
		}
		if c.ContentType() == binding.MIMEJSON {
			if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
				c.String(http.StatusBadRequest, err.Error())
				return
			}
		}
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{
			"key":     key,
			"session": IdempotencySession(c),
			"replay":  IsReplay(c),
			"bypass":  IsRateBypass(c),
			"message": body.Message,
		})
	}
	mw := IdempotencyValidator(opts, lookup)
	r.POST("/chat", mw, h)
	r.DELETE("/sessions/:id", mw, h)
	return r
}

func doJSON(r http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderIsNoop(t *testing.T) {
	var calls []lookupCall
	r := idemRouter(t, IdempotencyOptions{}, true, nil, &calls)
	w := doJSON(r, http.MethodPost, "/chat", "", `{"message":"hi"}`)
	if w.Code != http.StatusOK || len(calls) != 0 {
		t.Fatalf("code=%d calls=%v", w.Code, calls)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	var calls []lookupCall
	r := idemRouter(t, IdempotencyOptions{MaxLen: 8}, false, nil, &calls)
	for _, key := range []string{"has space", "way-too-long-key", "semi;colon"} {
		w := doJSON(r, http.MethodPost, "/chat", key, `{}`)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: code=%d body=%s", key, w.Code, w.Body.String())
		}
	}

	custom := idemRouter(t, IdempotencyOptions{Pattern: regexp.MustCompile(`^\d+$`)}, false, nil, &calls)
	if w := doJSON(custom, http.MethodPost, "/chat", "abc", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("custom pattern not applied: %d", w.Code)
	}
	if len(calls) != 0 {
		t.Fatalf("lookup must not run for invalid keys")
	}
}

func TestIdempotency_SessionScopingAndReplay(t *testing.T) {
	var calls []lookupCall
	r := idemRouter(t, IdempotencyOptions{}, true, nil, &calls)

	w := doJSON(r, http.MethodPost, "/chat", "k-1", `{"message":"dal?","session_id":" s-9 "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"replay":true`, `"bypass":true`, `"session":"s-9"`, `"message":"dal?"`, `"key":"k-1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in %s", want, body)
		}
	}

	doJSON(r, http.MethodPost, "/chat", "k-2", `{"message":"hi"}`)
	doJSON(r, http.MethodDelete, "/sessions/abc", "k-3", "")

	want := []lookupCall{
		{"u-1", "s-9", "k-1"},
		{"u-1", "default", "k-2"},
		{"u-1", "abc", "k-3"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %v; want %v", i, calls[i], want[i])
		}
	}
}

func TestIdempotency_LookupErrorIsNotReplay(t *testing.T) {
	var calls []lookupCall
	captureLogger(t)
	r := idemRouter(t, IdempotencyOptions{}, false, errors.New("db down"), &calls)
	w := doJSON(r, http.MethodPost, "/chat", "k", `{"message":"x"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestIdempotency_NoUserSkipsLookup(t *testing.T) {
	called := false
	r := gin.New()
	r.POST("/x", IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := doJSON(r, http.MethodPost, "/x", "k", `{}`); w.Code != http.StatusNoContent || called {
		t.Fatalf("code=%d called=%v", w.Code, called)
	}
}
