package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKeyByUserOrIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:5555"

	fn := KeyByUserOrIP()
	if got := fn(c); got != "ip:203.0.113.7" {
		t.Fatalf("ip key = %q", got)
	}
	c.Set(userIDKey, "u-1")
	if got := fn(c); got != "user:u-1" {
		t.Fatalf("user key = %q", got)
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0, 0, func(*gin.Context) string { return "k" })
	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(rateLimited)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request: %d %v", w.Code, w.Header())
	}
	if got := testutil.ToFloat64(rateLimited) - before; got != 1 {
		t.Fatalf("rate_limited delta = %v", got)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0, 1, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() }, rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}
	if len(rl.visitors) != 0 {
		t.Fatalf("bypassed requests must not allocate buckets")
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.gcEvery = 2
	rl.ttl = time.Hour

	rl.getVisitor("a")
	rl.visitors["a"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.getVisitor("b") // second lookup triggers GC
	if _, ok := rl.visitors["a"]; ok {
		t.Fatalf("idle bucket not evicted")
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Fatalf("requested bucket missing")
	}
	if rl.lookups != 0 {
		t.Fatalf("lookup counter not reset: %d", rl.lookups)
	}
}
