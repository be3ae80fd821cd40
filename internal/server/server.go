// Package server exposes the pricing agent over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/agent/core"
	"github.com/isa-group/harvey/internal/agent/telemetry"
	"github.com/isa-group/harvey/internal/cache"
	"github.com/isa-group/harvey/internal/store"
	"github.com/isa-group/harvey/internal/workflow"
)

// Run wires every component from configuration and serves until the
// listener fails.
func Run(cfg *config.Config) error {
	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	ctx := context.Background()

	tel := telemetry.New(cfg.Telemetry)

	llm, err := core.NewLLMProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("building llm provider: %w", err)
	}

	wf, err := workflow.NewClient(ctx, cfg.Workflow)
	if err != nil {
		return fmt.Errorf("connecting workflow client: %w", err)
	}
	defer wf.Close()

	var docCache core.DocumentCache
	if cfg.Storage.Redis.Enabled() {
		pc, err := cache.New(cfg.Storage.Redis)
		if err != nil {
			logger.Printf("pricing cache disabled: %v", err)
		} else {
			defer pc.Close()
			docCache = pc
		}
	}

	var st *store.Store
	if cfg.Storage.Postgres.Enabled() {
		dsn := cfg.Storage.Postgres.DSN()
		if err := Migrate("migrations", dsn, "up", 0); err != nil {
			return fmt.Errorf("migrating audit store: %w", err)
		}
		st, err = store.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		defer st.Close()
	}

	agent := core.NewAgent(cfg, llm, wf, docCache, tel)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = fmt.Sprintf("%v", he.Message)
		}
		logger.Printf("%d %s %s from %s: %v", code, c.Request().Method, c.Request().URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	chat := NewChatHandler(agent, st)
	upload := NewUploadHandler(cfg.Uploads)

	api := e.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(EchoAuthMiddleware(cfg.Server.JWTSecret))
	}
	api.POST("/chat", chat.HandleChat)
	api.POST("/upload", upload.HandleUpload)
	api.GET("/conversations", chat.HandleListConversations)
	api.GET("/conversations/:id", chat.HandleGetConversation)

	logger.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}
