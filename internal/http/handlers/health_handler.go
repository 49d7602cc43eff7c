package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/http/middleware"
)

// HealthResponse reports liveness and store reachability.
type HealthResponse struct {
	Status     string `json:"status" example:"healthy"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Database   string `json:"database" example:"sqlite"`
	UsersCount int64  `json:"users_count"`
}

const healthProbeTimeout = 2 * time.Second

// Health godoc
// @ID          health
// @Summary     Liveness and store check
// @Description Always 200; status is "degraded" when the store cannot be reached.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Message:   "Food recommendation chat API is running",
		Timestamp: h.timestamp(),
		Database:  h.backend,
	}
	n, err := h.auth.CountUsers(ctx)
	if err != nil {
		resp.Status = "degraded"
		resp.Message = "Store unavailable"
		middleware.LoggerFrom(c).Warn().Err(err).Msg("health: counting users failed")
	}
	resp.UsersCount = n
	ok(c, http.StatusOK, resp)
}
