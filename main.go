package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	classifyx "github.com/sornchai/shoptalk/agent/classify"
	llmx "github.com/sornchai/shoptalk/agent/llm"
	orchestratorx "github.com/sornchai/shoptalk/agent/orchestrator"
	sessionx "github.com/sornchai/shoptalk/agent/session"
	toolx "github.com/sornchai/shoptalk/agent/tool"
	commercex "github.com/sornchai/shoptalk/pkg/commerce"
	configx "github.com/sornchai/shoptalk/pkg/config"
	_ "github.com/sornchai/shoptalk/pkg/logger/autoload"
	serverx "github.com/sornchai/shoptalk/server"
)

type appConfig struct {
	Addr             string        `envconfig:"ADDR" default:":8080"`
	Debug            bool          `envconfig:"DEBUG" default:"false"`
	SessionBackend   string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionMaxAge    time.Duration `envconfig:"SESSION_MAX_AGE" default:"24h"`
	EvictionInterval time.Duration `envconfig:"EVICTION_INTERVAL" default:"1h"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[appConfig]("APP")

	gateway := llmx.MustNew(ctx, *configx.MustNew[llmx.Config]("LLM"))
	commerce := commercex.MustNew(*configx.MustNew[commercex.Config]("COMMERCE"))

	registry, err := toolx.NewCommerceRegistry(commerce)
	if err != nil {
		log.Fatal().Err(err).Msg("build capability registry")
	}

	store, closeStore := newSessionStore(ctx, appCfg)
	defer closeStore()

	orc, err := orchestratorx.New(store, gateway, registry, classifyx.New(gateway))
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	handler, err := serverx.NewHandler(orc, store, appCfg.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("build http handler")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	handler.RegisterRoutes(e)

	evictDone := make(chan struct{})
	go evictLoop(ctx, store, appCfg, evictDone)

	go func() {
		if err := e.Start(appCfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", appCfg.Addr).Str("session_backend", appCfg.SessionBackend).Msg("shoptalk started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	close(evictDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// newSessionStore builds the store with the configured durable backend.
// The returned close func releases backend resources, if any.
func newSessionStore(ctx context.Context, cfg *appConfig) (*sessionx.Store, func()) {
	opts := []sessionx.StoreOption{sessionx.WithMaxAge(cfg.SessionMaxAge)}
	closeStore := func() {}

	switch cfg.SessionBackend {
	case "memory":
	case "postgres":
		pg, err := sessionx.NewPostgresStore(ctx, *configx.MustNew[sessionx.PostgresConfig]("SESSION_POSTGRES"))
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres session backend")
		}
		opts = append(opts, sessionx.WithDurable(pg))
		closeStore = func() {
			if err := pg.Close(); err != nil {
				log.Warn().Err(err).Msg("close postgres session backend")
			}
		}
	case "redis":
		rd, err := sessionx.NewUpstashRedisStore(*configx.MustNew[sessionx.UpstashRedisConfig]("SESSION_REDIS"))
		if err != nil {
			log.Fatal().Err(err).Msg("build redis session backend")
		}
		opts = append(opts, sessionx.WithDurable(rd))
	default:
		log.Fatal().Str("backend", cfg.SessionBackend).Msg("unknown session backend")
	}

	return sessionx.NewStore(opts...), closeStore
}

func evictLoop(ctx context.Context, store *sessionx.Store, cfg *appConfig, done <-chan struct{}) {
	ticker := time.NewTicker(cfg.EvictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := store.EvictStale(ctx, cfg.SessionMaxAge); n > 0 {
				log.Info().Int("evicted", n).Msg("stale sessions evicted")
			}
		}
	}
}
