package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// RegisterRequest is the payload for POST /register.
type RegisterRequest struct {
	Username string `json:"username" example:"asha"`
	Email    string `json:"email" example:"asha@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// RegisterResponse is returned on 201.
type RegisterResponse struct {
	Message string            `json:"message" example:"User registered successfully"`
	User    domain.PublicUser `json:"user"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Email    string `json:"email" example:"asha@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Message   string            `json:"message" example:"Login successful"`
	User      domain.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresIn int64             `json:"expires_in" example:"2592000"`
	ExpiresAt string            `json:"expires_at" example:"2025-04-01T09:00:00Z"`
}

// ProfileResponse wraps the caller's public profile.
type ProfileResponse struct {
	User      domain.PublicUser `json:"user"`
	Timestamp string            `json:"timestamp"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account details"
// @Success     201   {object}  handlers.RegisterResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields or duplicate email"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Username, email, and password are required")
		return
	}
	u, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		failService(c, err, ErrCodeInternal, "Registration failed")
		return
	}
	ok(c, http.StatusCreated, RegisterResponse{Message: "User registered successfully", User: u})
}

// Login godoc
// @ID          login
// @Summary     Exchange credentials for a token
// @Description The token is valid for 30 days and is sent back as "Authorization: Bearer <token>".
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Email and password are required")
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failService(c, err, ErrCodeInternal, "Login failed")
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		User:      res.User,
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Profile godoc
// @ID          profile
// @Summary     Current user's profile
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /profile [get]
func (h *Handlers) Profile(c *gin.Context) {
	u, err := h.auth.Profile(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err, ErrCodeInternal, "Failed to get profile")
		return
	}
	ok(c, http.StatusOK, ProfileResponse{User: u, Timestamp: h.timestamp()})
}
