// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, authentication and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/food-chat-backend/internal/auth"
	"github.com/tbourn/food-chat-backend/internal/config"
	"github.com/tbourn/food-chat-backend/internal/docs"
	"github.com/tbourn/food-chat-backend/internal/http/handlers"
	"github.com/tbourn/food-chat-backend/internal/http/middleware"
	"github.com/tbourn/food-chat-backend/internal/services"
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
)

// Services bundles the application services behind the routes.
type Services struct {
	Auth    *services.AuthService
	Prefs   *services.PreferenceService
	History *services.HistoryService
	Chat    *services.ChatService
}

// NewServices builds the service graph over one store and agent.
func NewServices(st services.Store, ag services.Agent, cfg config.Config) Services {
	tokens := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := services.NewAuthService(st, tokens, auth.NewHasher(cfg.Auth.BcryptCost))
	prefs := services.NewPreferenceService(st)
	history := services.NewHistoryService(st)

	chat := services.NewChatService(history, prefs, ag, st)
	if cfg.MaxMessageRunes > 0 {
		chat.MaxMessageRunes = cfg.MaxMessageRunes
	}
	if cfg.HistoryContextLimit > 0 {
		chat.HistoryLimit = cfg.HistoryContextLimit
	}
	if cfg.IdempotencyTTL > 0 {
		chat.IdempotencyTTL = cfg.IdempotencyTTL
	}
	return Services{Auth: authSvc, Prefs: prefs, History: history, Chat: chat}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger (redacting unless disabled)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip, CORS and security headers
//
// Authentication, idempotency and rate limiting are per route group: the
// limiter keys on the user id, so it runs after Auth, and the idempotency
// validator runs before it so replays bypass the bucket.
func RegisterRoutes(r *gin.Engine, svc Services, backend string, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	} else {
		r.Use(middleware.Logger())
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))
	}

	useCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc.Auth, svc.Prefs, svc.History, svc.Chat, backend)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	limit := rl.Handler()

	// Liveness for probes that do not know the API prefix.
	r.GET("/health", h.Health)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/health", h.Health)
		api.POST("/register", limit, h.Register)
		api.POST("/login", limit, h.Login)
	}

	authed := api.Group("", middleware.Auth(svc.Auth))
	{
		idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, svc.Chat.ReplayExists)
		authed.POST("/chat", idem, limit, h.Chat)
	}

	limited := authed.Group("", limit)
	{
		limited.GET("/profile", h.Profile)

		limited.GET("/chat/history", h.GetHistory)
		limited.DELETE("/chat/history", h.ClearHistory)
		limited.GET("/chat/summary", h.Summary)
		limited.POST("/chat/search", h.Search)

		limited.GET("/sessions", h.ListSessions)
		limited.POST("/sessions", h.CreateSession)
		limited.DELETE("/sessions/:id", h.DeleteSession)
		limited.GET("/sessions/:id/history", h.SessionHistory)
		limited.DELETE("/sessions/:id/history", h.ClearSessionHistory)

		limited.GET("/user/context", h.UserContext)
		limited.GET("/preferences", h.GetPreferences)
		limited.PUT("/preferences", h.UpdatePreferences)
	}
}

// useCORS allows every origin when none are configured, otherwise echoes
// allowlisted origins only.
func useCORS(r *gin.Engine, origins []string) {
	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
