package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/services"
)

// PreferencesResponse is returned by GET /preferences.
type PreferencesResponse struct {
	Preferences domain.Preferences `json:"preferences"`
	Complete    bool               `json:"complete"`
	Missing     []string           `json:"missing"`
	Timestamp   string             `json:"timestamp"`
}

// UpdatePreferencesRequest replaces the stored preferences. Each category
// takes a string or a list of strings; unknown categories are kept under
// custom.
type UpdatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" swaggertype:"object"`
}

// UpdatePreferencesResponse echoes the normalized preferences.
type UpdatePreferencesResponse struct {
	Message     string             `json:"message" example:"Preferences updated successfully"`
	Preferences domain.Preferences `json:"preferences"`
	Timestamp   string             `json:"timestamp"`
}

// GetPreferences godoc
// @ID          getPreferences
// @Summary     Current food preferences
// @Tags        Preferences
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.PreferencesResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /preferences [get]
func (h *Handlers) GetPreferences(c *gin.Context) {
	p, err := h.prefs.Get(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err, ErrCodePreferenceFailed, "Failed to get preferences")
		return
	}
	missing := p.MissingMandatory()
	ok(c, http.StatusOK, PreferencesResponse{
		Preferences: p,
		Complete:    len(missing) == 0,
		Missing:     missing,
		Timestamp:   h.timestamp(),
	})
}

// UpdatePreferences godoc
// @ID          updatePreferences
// @Summary     Replace food preferences
// @Tags        Preferences
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.UpdatePreferencesRequest  true  "Preferences by category"
// @Success     200   {object}  handlers.UpdatePreferencesResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing or invalid preferences"
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /preferences [put]
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Preferences) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Preferences data is required")
		return
	}
	p, err := services.PreferencesFromMap(req.Preferences)
	if err != nil {
		failService(c, err, ErrCodePreferenceFailed, "Failed to update preferences")
		return
	}
	p.Normalize()
	if err := h.prefs.Replace(c.Request.Context(), userID(c), p); err != nil {
		failService(c, err, ErrCodePreferenceFailed, "Failed to update preferences")
		return
	}
	ok(c, http.StatusOK, UpdatePreferencesResponse{
		Message:     "Preferences updated successfully",
		Preferences: p,
		Timestamp:   h.timestamp(),
	})
}
