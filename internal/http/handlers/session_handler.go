package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// SessionsResponse lists the caller's sessions, most recently active first.
type SessionsResponse struct {
	Sessions      []domain.SessionInfo `json:"sessions"`
	TotalSessions int                  `json:"total_sessions"`
	Timestamp     string               `json:"timestamp"`
}

// CreateSessionRequest is the optional payload for POST /sessions.
type CreateSessionRequest struct {
	SessionName string `json:"session_name,omitempty" example:"Weeknight dinners"`
}

// CreateSessionResponse describes the new session.
type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	Message     string `json:"message" example:"Session created successfully"`
	Timestamp   string `json:"timestamp"`
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List chat sessions
// @Tags        Sessions
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SessionsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	list, err := h.history.Sessions(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err, ErrCodeSessionFailed, "Failed to get sessions")
		return
	}
	if list == nil {
		list = []domain.SessionInfo{}
	}
	ok(c, http.StatusOK, SessionsResponse{Sessions: list, TotalSessions: len(list), Timestamp: h.timestamp()})
}

// CreateSession godoc
// @ID          createSession
// @Summary     Start a named session
// @Description The body is optional; a name based on the current time is used when empty.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateSessionRequest  false  "Session name"
// @Success     201   {object}  handlers.CreateSessionResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
			return
		}
	}
	meta, err := h.history.CreateSession(c.Request.Context(), userID(c), strings.TrimSpace(req.SessionName))
	if err != nil {
		failService(c, err, ErrCodeSessionFailed, "Failed to create session")
		return
	}
	ok(c, http.StatusCreated, CreateSessionResponse{
		SessionID:   meta.SessionID,
		SessionName: meta.SessionName,
		Message:     "Session created successfully",
		Timestamp:   h.timestamp(),
	})
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session and its exchanges
// @Tags        Sessions
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  handlers.ClearResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions/{id} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	n, err := h.history.DeleteSession(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeSessionFailed, "Failed to delete session")
		return
	}
	ok(c, http.StatusOK, ClearResponse{
		Message:   "Session deleted successfully",
		SessionID: id,
		Deleted:   n,
		Timestamp: h.timestamp(),
	})
}

// SessionHistory godoc
// @ID          sessionHistory
// @Summary     Chat history of one session
// @Tags        Sessions
// @Produce     json
// @Security    BearerAuth
// @Param       id     path      string  true   "Session ID"
// @Param       limit  query     int     false  "Max exchanges"  minimum(1) maximum(500) default(50)
// @Success     200    {object}  handlers.HistoryResponse
// @Success     304    "Not modified"
// @Failure     401    {object}  handlers.ErrorResponse
// @Failure     500    {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/history [get]
func (h *Handlers) SessionHistory(c *gin.Context) { h.writeHistory(c, c.Param("id")) }

// ClearSessionHistory godoc
// @ID          clearSessionHistory
// @Summary     Delete the exchanges of one session
// @Description The session itself (and its metadata) is kept.
// @Tags        Sessions
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  handlers.ClearResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/history [delete]
func (h *Handlers) ClearSessionHistory(c *gin.Context) {
	id := c.Param("id")
	n, err := h.history.Clear(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeHistoryFailed, "Failed to clear session history")
		return
	}
	ok(c, http.StatusOK, ClearResponse{
		Message:   "Session history cleared",
		SessionID: id,
		Deleted:   n,
		Timestamp: h.timestamp(),
	})
}
