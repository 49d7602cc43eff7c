// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, store selection, token signing, LLM provider settings, rate
// limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by DB_DRIVER.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// LLM providers accepted by LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// devJWTSecret is only accepted outside release mode.
const devJWTSecret = "dev-insecure-secret-change-me"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres|firestore

	SQLitePath  string // DB_PATH
	PostgresDSN string // DATABASE_URL

	FirestoreProject     string // FIRESTORE_PROJECT_ID
	FirestoreDatabase    string // FIRESTORE_DATABASE
	FirestoreCredentials string // FIRESTORE_CREDENTIALS_FILE (optional; ADC otherwise)
}

// AuthConfig configures password hashing and token signing.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// LLMConfig configures the hosted model behind the chat agent.
type LLMConfig struct {
	Provider          string // gemini|openai|none
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	Timeout           time.Duration
	Temperature       float64 // replies
	IntentTemperature float64 // intent classification
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // LLM replies are slow; default 60s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	GzipEnabled    bool   // gzip JSON responses
	APIBasePath    string // base path for API routes

	// Persistence
	Store StoreConfig

	// Auth
	Auth AuthConfig

	// Chat
	LLM                 LLMConfig
	MaxMessageRunes     int    // cap on a single chat message
	HistoryContextLimit int    // exchanges handed to the agent
	FoodCatalogPath     string // markdown dish catalog

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	MaxBodyBytes int64 // request body cap

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRedact:      getbool("LOG_REDACT", true),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		GzipEnabled:    getbool("GZIP_ENABLED", true),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Persistence
		Store: StoreConfig{
			Driver:               strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
			SQLitePath:           getenv("DB_PATH", "foodchat.db"),
			PostgresDSN:          getenv("DATABASE_URL", ""),
			FirestoreProject:     getenv("FIRESTORE_PROJECT_ID", ""),
			FirestoreDatabase:    getenv("FIRESTORE_DATABASE", "(default)"),
			FirestoreCredentials: getenv("FIRESTORE_CREDENTIALS_FILE", ""),
		},

		// Auth
		Auth: AuthConfig{
			JWTSecret:  getenv("JWT_SECRET", ""),
			TokenTTL:   getdur("TOKEN_TTL", 30*24*time.Hour),
			BcryptCost: getint("BCRYPT_COST", 10),
		},

		// Chat
		LLM: LLMConfig{
			Provider:          strings.ToLower(getenv("LLM_PROVIDER", "")),
			GeminiAPIKey:      getenv("GEMINI_API_KEY", ""),
			GeminiModel:       getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:      getenv("OPENAI_API_KEY", ""),
			OpenAIModel:       getenv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:     getenv("OPENAI_BASE_URL", ""),
			Timeout:           getdur("LLM_TIMEOUT", 30*time.Second),
			Temperature:       getfloat("LLM_TEMPERATURE", 0.7),
			IntentTemperature: getfloat("INTENT_TEMPERATURE", 0.3),
		},
		MaxMessageRunes:     getint("MAX_MESSAGE_RUNES", 2000),
		HistoryContextLimit: getint("HISTORY_CONTEXT_LIMIT", 20),
		FoodCatalogPath:     getenv("FOOD_CATALOG_PATH", "data/dishes.md"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		MaxBodyBytes: int64(getint("MAX_BODY_BYTES", 1<<20)),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "food-chat-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Store.Driver == "postgresql" {
		cfg.Store.Driver = DriverPostgres
	}
	if cfg.LLM.Provider == "" {
		// Pick whichever key is present; otherwise run without a model.
		switch {
		case cfg.LLM.GeminiAPIKey != "":
			cfg.LLM.Provider = ProviderGemini
		case cfg.LLM.OpenAIAPIKey != "":
			cfg.LLM.Provider = ProviderOpenAI
		default:
			cfg.LLM.Provider = ProviderNone
		}
	}
	if cfg.Auth.JWTSecret == "" && cfg.GinMode != "release" {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}

	switch cfg.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.SQLitePath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.PostgresDSN) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case DriverFirestore:
		if strings.TrimSpace(cfg.Store.FirestoreProject) == "" {
			return cfg, errors.New("FIRESTORE_PROJECT_ID is required when DB_DRIVER=firestore")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres, firestore")
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must be set in release mode")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("TOKEN_TTL must be > 0")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be between 4 and 31")
	}

	switch cfg.LLM.Provider {
	case ProviderGemini:
		if cfg.LLM.GeminiAPIKey == "" {
			return cfg, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if cfg.LLM.OpenAIAPIKey == "" {
			return cfg, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderNone:
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: gemini, openai, none")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 || cfg.LLM.IntentTemperature < 0 || cfg.LLM.IntentTemperature > 2 {
		return cfg, errors.New("temperatures must be between 0 and 2")
	}
	if cfg.MaxMessageRunes <= 0 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be > 0")
	}
	if cfg.HistoryContextLimit < 0 {
		return cfg, errors.New("HISTORY_CONTEXT_LIMIT must be >= 0")
	}

	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// UsingDevSecret reports whether the built-in development signing secret is active.
func (c Config) UsingDevSecret() bool { return c.Auth.JWTSecret == devJWTSecret }

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
