// Command server runs the food recommendation chat API.
//
// @title                       Food Chat API
// @version                     1.0
// @description                 Food recommendation chat backend: accounts, preferences, chat sessions and history.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/tbourn/food-chat-backend/internal/agent"
	"github.com/tbourn/food-chat-backend/internal/config"
	httpapi "github.com/tbourn/food-chat-backend/internal/http"
	"github.com/tbourn/food-chat-backend/internal/observability"
	"github.com/tbourn/food-chat-backend/internal/repo"
	"github.com/tbourn/food-chat-backend/internal/repo/docstore"
	"github.com/tbourn/food-chat-backend/internal/search"
	"github.com/tbourn/food-chat-backend/internal/services"
	"github.com/tbourn/food-chat-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply SQL migrations and exit")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	if cfg.UsingDevSecret() {
		log.Warn().Msg("JWT_SECRET not set; using the development secret")
	}

	if err := run(cfg, *migrateOnly); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg, sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = st.Close() }()
	log.Info().Str("driver", st.Name()).Msg("store ready")
	if migrateOnly {
		return nil
	}

	ag, closeAgent, err := newAgent(ctx, cfg, services.NewPreferenceService(st))
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	defer func() { _ = closeAgent.Close() }()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.NewServices(st, ag, cfg), st.Name(), cfg)

	srv := &http.Server{
		Addr:              sysutil.ListenAddr(cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.APIBasePath).Bool("swagger", cfg.SwaggerEnabled).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openStore connects the backend selected by DB_DRIVER. SQL backends are
// migrated on open.
func openStore(ctx context.Context, cfg config.Config) (services.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverFirestore:
		fs, err := docstore.Open(ctx, docstore.Options{
			ProjectID:       cfg.Store.FirestoreProject,
			DatabaseID:      cfg.Store.FirestoreDatabase,
			CredentialsFile: cfg.Store.FirestoreCredentials,
		})
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Store.Driver)
	}

	open := func() (*repo.GormStore, error) {
		if cfg.Store.Driver == config.DriverPostgres {
			db, err := repo.OpenPostgres(cfg.Store.PostgresDSN)
			if err != nil {
				return nil, err
			}
			return repo.NewGormStore(db, config.DriverPostgres), nil
		}
		db, err := repo.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo.NewGormStore(db, config.DriverSQLite), nil
	}
	st, err := open()
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(st.DB); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	if err := repo.AutoMigrate(st.DB); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// newAgent builds the chat agent for LLM_PROVIDER. The returned closer
// releases the model client.
func newAgent(ctx context.Context, cfg config.Config, prefs agent.PreferenceWriter) (services.Agent, io.Closer, error) {
	var llm agent.LLM
	closer := io.Closer(nopCloser{})

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := agent.NewGeminiLLM(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		llm, closer = g, g
	case config.ProviderOpenAI:
		llm = agent.NewOpenAILLM(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel, cfg.LLM.OpenAIBaseURL)
	default:
		log.Warn().Msg("no LLM provider configured; chat replies are disabled")
		return agent.Disabled{}, closer, nil
	}

	catalog, err := search.LoadCatalog(cfg.FoodCatalogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.FoodCatalogPath).Msg("dish catalog unavailable; recommendations rely on the model alone")
	} else {
		log.Info().Int("dishes", catalog.Len()).Msg("dish catalog loaded")
	}

	m := agent.NewManager(llm, prefs, catalog,
		agent.WithTemperature(cfg.LLM.Temperature),
		agent.WithIntentTemperature(cfg.LLM.IntentTemperature),
		agent.WithTimeout(cfg.LLM.Timeout),
	)
	log.Info().Str("provider", cfg.LLM.Provider).Msg("chat agent ready")
	return m, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
