package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// HeaderIdempotencyKey is the request header carrying a client-chosen key
// that makes a chat send safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey     = "idem.key"
	ctxKeyIdemSession = "idem.session"
	ctxKeyIdemReplay  = "idem.replay"
	ctxKeyRateBypass  = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// IsReplay reports whether a live record exists for this request's key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyOptions configures IdempotencyValidator. Expiry is the lookup's
// concern.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts key characters. Defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid result exists for
// (userID, sessionID, key) at now. Errors are treated as "no replay".
type IdempotencyLookup func(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error)

// sessionPeek is the slice of a chat request body needed to scope a key.
type sessionPeek struct {
	SessionID string `json:"session_id"`
}

// IdempotencyValidator validates the Idempotency-Key header when present and
// asks lookup whether the request replays a completed send. A replay is
// flagged for the handler (IsReplay) and exempted from rate limiting.
//
// The session comes from the :id route param or, for JSON bodies, from
// "session_id"; it defaults to domain.DefaultSessionID. The body is read with
// ShouldBindBodyWith, so handlers behind this middleware must bind the same
// way.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		sessionID := requestSession(c)
		c.Set(ctxKeyIdemSession, sessionID)

		uid := UserID(c)
		if lookup != nil && uid != "" {
			exists, err := lookup(c.Request.Context(), uid, sessionID, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// IdempotencySession returns the session the key was scoped to.
func IdempotencySession(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemSession)
	return asString(v)
}

func requestSession(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		return id
	}
	if c.Request.Body != nil && c.ContentType() == binding.MIMEJSON {
		var peek sessionPeek
		if err := c.ShouldBindBodyWith(&peek, binding.JSON); err == nil {
			if s := strings.TrimSpace(peek.SessionID); s != "" {
				return s
			}
		}
	}
	return domain.DefaultSessionID
}
