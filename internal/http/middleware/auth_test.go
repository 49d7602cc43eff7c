package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/food-chat-backend/internal/services"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyToken(raw string) (string, error) {
	if raw == "" {
		return "", services.ErrMissingToken
	}
	if id, ok := f[raw]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: bad signature", services.ErrInvalidToken)
}

func TestAuth(t *testing.T) {
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RequestID(), Logger(), Auth(fakeVerifier{"Bearer good": "u-1"}))
	r.GET("/me", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("handler")
		c.String(http.StatusOK, UserID(c))
	})

	cases := []struct {
		name, header string
		status       int
		msg          string
	}{
		{"missing", "", http.StatusUnauthorized, "Token is missing"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "Token is invalid"},
		{"valid", "Bearer good", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusOK {
				if w.Body.String() != "u-1" {
					t.Fatalf("user id = %q", w.Body.String())
				}
				if line := lastLine(t, buf); line["user_id"] != "u-1" {
					t.Fatalf("access log not enriched: %v", line)
				}
				return
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["message"] != tc.msg || body["code"] != "unauthorized" || body["request_id"] == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestUserID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if UserID(c) != "" {
		t.Fatalf("expected empty user id")
	}
	_, err := fakeVerifier{}.VerifyToken("x")
	if !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("fake verifier wrapping: %v", err)
	}
}
