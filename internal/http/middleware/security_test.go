package middleware

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	cases := []struct {
		name  string
		opt   SecurityOptions
		setup func(*http.Request)
		want  map[string]string
		none  []string
	}{
		{
			name: "baseline",
			opt:  SecurityOptions{},
			want: map[string]string{
				"X-Content-Type-Options": "nosniff",
				"X-Frame-Options":        "DENY",
				"Referrer-Policy":        "no-referrer",
			},
			none: []string{"Strict-Transport-Security", "Cache-Control", "Permissions-Policy"},
		},
		{
			name: "hsts ignored on plain http",
			opt:  SecurityOptions{EnableHSTS: true},
			none: []string{"Strict-Transport-Security"},
		},
		{
			name:  "hsts via proxy header with default max-age",
			opt:   SecurityOptions{EnableHSTS: true},
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") },
			want:  map[string]string{"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload"},
		},
		{
			name:  "hsts via tls with custom max-age",
			opt:   SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour},
			setup: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want:  map[string]string{"Strict-Transport-Security": "max-age=3600; includeSubDomains; preload"},
		},
		{
			name: "no-store and policies",
			opt:  SecurityOptions{NoStore: true, EnablePolicy: true},
			want: map[string]string{
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
				"X-Permitted-Cross-Domain-Policies": "none",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeaders(tc.opt))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			for k, v := range tc.want {
				if got := w.Header().Get(k); got != v {
					t.Fatalf("%s = %q; want %q", k, got, v)
				}
			}
			for _, k := range tc.none {
				if got := w.Header().Get(k); got != "" {
					t.Fatalf("%s should be unset, got %q", k, got)
				}
			}
		})
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "ETag")
		c.Next()
	}, SecurityHeaders(SecurityOptions{}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
		t.Fatalf("expose = %q", got)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "read: %v", err)
			return
		}
		c.String(http.StatusOK, string(b))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if w.Code != http.StatusOK || w.Body.String() != "small" {
		t.Fatalf("small body: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way more than eight")))
	if w.Code != http.StatusRequestEntityTooLarge || !strings.Contains(w.Body.String(), "payload_too_large") {
		t.Fatalf("declared length: %d %s", w.Code, w.Body.String())
	}

	// Unknown length: the reader itself enforces the cap.
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("way more than eight")))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("streamed body: %d", w.Code)
	}
}
