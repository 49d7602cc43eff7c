package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/services"
)

// userIDKey is where Auth stores the authenticated user id.
const userIDKey = "userID"

// TokenVerifier resolves an Authorization header value to a user id.
// *services.AuthService implements it.
type TokenVerifier interface {
	VerifyToken(raw string) (string, error)
}

// Auth rejects requests without a valid token with 401 and otherwise stores
// the user id in the Gin context (see UserID). The header may be the bare
// token or "Bearer <token>".
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.VerifyToken(c.GetHeader("Authorization"))
		if err != nil {
			msg := "Token is invalid"
			if errors.Is(err, services.ErrMissingToken) {
				msg = "Token is missing"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    msg,
			})
			return
		}

		c.Set(userIDKey, id)
		l := LoggerFrom(c).With().Str("user_id", id).Logger()
		setLogger(c, &l)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}
