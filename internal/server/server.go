package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limelight-ai/limelight/config"
	"github.com/limelight-ai/limelight/internal/agent/core"
	"github.com/limelight-ai/limelight/internal/agent/telemetry"
	"github.com/limelight-ai/limelight/internal/analysis"
	"github.com/limelight-ai/limelight/internal/store"
	"github.com/limelight-ai/limelight/provider"
	"github.com/limelight-ai/limelight/session"
	"github.com/limelight-ai/limelight/session/inmemory"
	redis_session "github.com/limelight-ai/limelight/session/redis"
	"github.com/limelight-ai/limelight/tools/analytics"
	"github.com/limelight-ai/limelight/tools/similarity"
)

// Run wires the whole pipeline and serves until the listener fails.
func Run(cfgPath string) error {
	cfg := config.LoadConfig(cfgPath)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	tele := telemetry.NewTelemetry(cfg.Telemetry, log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags), prometheus.DefaultRegisterer)

	// Single shared LLM backend; the lock serializes concurrent callers.
	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
	if err != nil {
		return err
	}
	llm = provider.Serialized(llm)

	search := similarity.New(cfg.Retrieval.BaseURL, cfg.Retrieval.APIKey, cfg.Retrieval.Timeout)
	tools := analytics.New(cfg.Tools.BaseURL, cfg.Tools.Timeout)

	agentLogger := log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	agents := map[core.AgentType]*core.RetrievalAgent{
		core.AgentCommunity: core.NewRetrievalAgent(core.AgentCommunity, cfg.Retrieval.Community, cfg.Agents.TopK, search, agentLogger),
		core.AgentNews:      core.NewRetrievalAgent(core.AgentNews, cfg.Retrieval.News, cfg.Agents.TopK, search, agentLogger),
		core.AgentMusic:     core.NewRetrievalAgent(core.AgentMusic, cfg.Retrieval.Music, cfg.Agents.TopK, search, agentLogger),
	}

	coordLogger := log.New(log.Writer(), "[COORD] ", log.LstdFlags)
	classifier := core.NewClassifier(llm, coordLogger, tele)
	coordinator := core.NewCoordinator(classifier, agents, cfg.Agents.Timeout, coordLogger, tele)

	analyzer, err := analysis.NewAnalyzer(llm, tools, cfg.Analysis, log.New(log.Writer(), "[ANALYSIS] ", log.LstdFlags), tele)
	if err != nil {
		return err
	}

	sessions, err := newSessionStore(cfg.Storage)
	if err != nil {
		return err
	}

	// Prompt archive is optional: without Postgres the service still answers,
	// it just keeps no history of its prompts.
	var archive *store.Store
	if cfg.Storage.Postgres.Configured() {
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return err
		}
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			baseLogger.Printf("migrations: %v", err)
		}
		archive, err = store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
	} else {
		baseLogger.Printf("postgres not configured, prompt archive disabled")
	}

	h := &WSHandler{
		Coordinator: coordinator,
		Analyzer:    analyzer,
		Provider:    llm,
		Sessions:    sessions,
		SessionTTL:  cfg.Storage.SessionTTL,
		Archive:     archive,
		Logger:      log.New(log.Writer(), "[WS] ", log.LstdFlags),
	}
	e.GET("/ws/:user_id", h.Serve)
	e.GET("/prompts/:user_id", (&PromptsHandler{Archive: archive}).Recent)

	return e.Start(cfg.Server.Address)
}

func newSessionStore(cfg config.StorageConfig) (session.Store, error) {
	switch cfg.SessionStore {
	case "", "inmemory":
		return inmemory.NewInMemorySessionStore(), nil
	case "redis":
		if err := cfg.Redis.Validate(); err != nil {
			return nil, err
		}
		return redis_session.NewRedisSessionStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
