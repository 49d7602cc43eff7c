package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/http/middleware"
)

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	// Message is the user's text. It must be non-empty after trimming.
	Message string `json:"message" example:"Suggest a vegetarian dinner"`
	// SessionID groups the exchange; "default" when omitted.
	SessionID string `json:"session_id,omitempty" example:"default"`
}

// UserContextResponse wraps what the assistant knows about the caller.
type UserContextResponse struct {
	UserContext domain.UserContext `json:"user_context"`
	Timestamp   string             `json:"timestamp"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings to LF, collapses blank-line runs,
// and trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Chat godoc
// @ID          chat
// @Summary     Send a message to the food assistant
// @Description Returns the assistant's reply. Agent failures produce a fixed apology with status 200.
// @Description With an Idempotency-Key header, a retry within the TTL returns the stored reply and sets Idempotency-Replayed: true.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true   "Message"
// @Success     200  {object}  domain.ChatReply
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or oversized message"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     429  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	// Body may already have been read by the idempotency middleware.
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message is required")
		return
	}
	content := sanitizeContent(req.Message)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message is required")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	ctx := c.Request.Context()
	uid := userID(c)
	key, _ := middleware.GetIdempotencyKey(c)
	if key != "" {
		if prev, found := h.chat.Replay(ctx, uid, sessionID, key); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	reply, err := h.chat.Send(ctx, uid, content, sessionID)
	if err != nil {
		failService(c, err, ErrCodeChatFailed, "Chat failed")
		return
	}
	if key != "" {
		h.chat.Remember(ctx, uid, key, reply)
	}
	ok(c, http.StatusOK, reply)
}

// UserContext godoc
// @ID          userContext
// @Summary     What the assistant knows about the caller
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserContextResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /user/context [get]
func (h *Handlers) UserContext(c *gin.Context) {
	uc, err := h.chat.Context(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err, ErrCodeInternal, "Failed to get user context")
		return
	}
	ok(c, http.StatusOK, UserContextResponse{UserContext: uc, Timestamp: h.timestamp()})
}
