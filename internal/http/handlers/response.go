package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/http/middleware"
	"github.com/tbourn/food-chat-backend/internal/services"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"User not found"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged with the
// request-scoped logger; err, when given, carries the detail the client
// never sees.
func fail(c *gin.Context, status int, code, msg string, err ...error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg)
		if len(err) > 0 && err[0] != nil {
			ev = ev.Err(err[0])
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail, used by the router for 404/405.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failService maps the services error taxonomy onto a response. Anything
// unrecognized becomes a 500 with internalMsg.
func failService(c *gin.Context, err error, internalCode, internalMsg string) {
	switch {
	case errors.Is(err, services.ErrDuplicateEmail):
		fail(c, http.StatusBadRequest, ErrCodeConflict, "User with this email already exists")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message is required")
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message is too long")
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidPreferences):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrMissingToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Token is missing")
	case errors.Is(err, services.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Token is invalid")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
	default:
		fail(c, http.StatusInternalServerError, internalCode, internalMsg, err)
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// timestamp renders now as RFC 3339 UTC.
func (h *Handlers) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
