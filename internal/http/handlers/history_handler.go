package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/utils"
)

// HistoryResponse lists exchanges in chronological order.
type HistoryResponse struct {
	SessionID     string           `json:"session_id,omitempty"`
	ChatHistory   []domain.Message `json:"chat_history"`
	TotalMessages int              `json:"total_messages"`
	Timestamp     string           `json:"timestamp"`
}

// ClearResponse reports how many exchanges were removed.
type ClearResponse struct {
	Message   string `json:"message" example:"Chat history cleared"`
	SessionID string `json:"session_id,omitempty"`
	Deleted   int64  `json:"deleted"`
	Timestamp string `json:"timestamp"`
}

// SummaryResponse wraps the conversation summary.
type SummaryResponse struct {
	Summary   domain.Summary `json:"summary"`
	Timestamp string         `json:"timestamp"`
}

// SearchRequest is the payload for POST /chat/search.
type SearchRequest struct {
	Query string `json:"query" example:"paneer"`
	Limit int    `json:"limit,omitempty" example:"10"`
}

// SearchResponse lists matches, newest first.
type SearchResponse struct {
	SearchResults []domain.Message `json:"search_results"`
	Query         string           `json:"query"`
	TotalResults  int              `json:"total_results"`
	Timestamp     string           `json:"timestamp"`
}

// historyETag sets a weak ETag derived from the message count and newest
// timestamp and reports whether If-None-Match already matches it. Stats
// failures skip the precheck.
func (h *Handlers) historyETag(c *gin.Context, uid, sessionID string, limit int) bool {
	count, latest, err := h.history.Stats(c.Request.Context(), uid, sessionID)
	if err != nil {
		return false
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	scope := sessionID
	if scope == "" {
		scope = "all"
	}
	etag := fmt.Sprintf(`W/"history:%s:%d:%d:%d"`, scope, count, ts, limit)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handlers) writeHistory(c *gin.Context, sessionID string) {
	uid := userID(c)
	limit := utils.LimitParam(c.Query("limit"))
	if h.historyETag(c, uid, sessionID, limit) {
		return
	}
	msgs, err := h.history.History(c.Request.Context(), uid, sessionID, limit)
	if err != nil {
		failService(c, err, ErrCodeHistoryFailed, "Failed to get chat history")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	ok(c, http.StatusOK, HistoryResponse{
		SessionID:     sessionID,
		ChatHistory:   msgs,
		TotalMessages: len(msgs),
		Timestamp:     h.timestamp(),
	})
}

// GetHistory godoc
// @ID          getHistory
// @Summary     Chat history across all sessions
// @Description Chronological; supports a weak ETag with If-None-Match.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query     int  false  "Max exchanges"  minimum(1) maximum(500) default(50)
// @Success     200    {object}  handlers.HistoryResponse
// @Success     304    "Not modified"
// @Failure     401    {object}  handlers.ErrorResponse
// @Failure     500    {object}  handlers.ErrorResponse
// @Router      /chat/history [get]
func (h *Handlers) GetHistory(c *gin.Context) { h.writeHistory(c, "") }

// ClearHistory godoc
// @ID          clearHistory
// @Summary     Delete every exchange of the caller
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ClearResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chat/history [delete]
func (h *Handlers) ClearHistory(c *gin.Context) {
	n, err := h.history.Clear(c.Request.Context(), userID(c), "")
	if err != nil {
		failService(c, err, ErrCodeHistoryFailed, "Failed to clear chat history")
		return
	}
	ok(c, http.StatusOK, ClearResponse{Message: "Chat history cleared", Deleted: n, Timestamp: h.timestamp()})
}

// Summary godoc
// @ID          chatSummary
// @Summary     Summary of recent conversation
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SummaryResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chat/summary [get]
func (h *Handlers) Summary(c *gin.Context) {
	sum, err := h.history.Summary(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err, ErrCodeHistoryFailed, "Failed to get chat summary")
		return
	}
	ok(c, http.StatusOK, SummaryResponse{Summary: sum, Timestamp: h.timestamp()})
}

// Search godoc
// @ID          searchHistory
// @Summary     Case-insensitive search over recent exchanges
// @Tags        History
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.SearchRequest  true  "Query"
// @Success     200   {object}  handlers.SearchResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing query"
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /chat/search [post]
func (h *Handlers) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Search query is required")
		return
	}
	res, err := h.history.Search(c.Request.Context(), userID(c), req.Query, req.Limit)
	if err != nil {
		failService(c, err, ErrCodeHistoryFailed, "Failed to search chat history")
		return
	}
	ok(c, http.StatusOK, SearchResponse{
		SearchResults: res,
		Query:         req.Query,
		TotalResults:  len(res),
		Timestamp:     h.timestamp(),
	})
}
